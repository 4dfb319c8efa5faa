package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ExportVersion is the only envelope version the import path accepts.
const ExportVersion = "1.0.0"

// ErrInvalidImport marks import payloads with an unrecognized shape or
// version. Imports are schema-checked, never archived blindly.
var ErrInvalidImport = errors.New("invalid import payload")

// Export bundles everything belonging to one player.
type Export struct {
	PlayerID        string            `json:"player_id"`
	Username        string            `json:"username"`
	Statistics      PlayerStatistics  `json:"statistics"`
	RecentSessions  []SessionRecord   `json:"recent_sessions"`
	SavedGameState  *GameState        `json:"saved_game_state,omitempty"`
	ExportTimestamp time.Time         `json:"export_timestamp"`
	Version         string            `json:"version"`
}

// ImportRecord is an accepted, archived import request.
type ImportRecord struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"player_id"`
	Payload    Export    `json:"payload"`
	ImportedAt time.Time `json:"import_timestamp"`
}

// ParseImport decodes and validates an export envelope. Unknown fields, a
// version other than ExportVersion, or a missing player id are rejected.
func ParseImport(raw []byte) (Export, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var exp Export
	if err := dec.Decode(&exp); err != nil {
		return Export{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if exp.Version != ExportVersion {
		return Export{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidImport, exp.Version)
	}
	if exp.PlayerID == "" {
		return Export{}, fmt.Errorf("%w: missing player_id", ErrInvalidImport)
	}
	for i, sess := range exp.RecentSessions {
		if !sess.EndReason.Valid() {
			return Export{}, fmt.Errorf("%w: session %d has unknown game_ended_reason %q", ErrInvalidImport, i, sess.EndReason)
		}
	}
	return exp, nil
}
