// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinSnakeLength is the smallest snake a finished game can report; the snake
// starts with three segments.
const MinSnakeLength = 3

// EndReason enumerates how a game session ended.
type EndReason string

// Valid end reasons.
const (
	EndReasonWallCollision EndReason = "wall_collision"
	EndReasonSelfCollision EndReason = "self_collision"
	EndReasonQuit          EndReason = "quit"
)

// Valid reports whether r is one of the enumerated end reasons.
func (r EndReason) Valid() bool {
	switch r {
	case EndReasonWallCollision, EndReasonSelfCollision, EndReasonQuit:
		return true
	default:
		return false
	}
}

// ErrInvalidSession marks session inputs rejected before any aggregation.
var ErrInvalidSession = errors.New("invalid session input")

// SessionInput is a finished-session submission.
//
// SessionID is an optional client-supplied idempotency key; when empty the
// recorder generates one.
type SessionInput struct {
	SessionID       string    `json:"session_id,omitempty"`
	PlayerID        string    `json:"player_id"`
	Score           int       `json:"score"`
	SnakeLength     int       `json:"snake_length"`
	DurationSeconds int       `json:"duration_seconds"`
	FoodEaten       int       `json:"food_eaten"`
	SpeedBoostsUsed int       `json:"speed_boosts_used"`
	EndReason       EndReason `json:"game_ended_reason"`
}

// Validate checks the input against the recording contract.
func (in SessionInput) Validate() error {
	switch {
	case strings.TrimSpace(in.PlayerID) == "":
		return fmt.Errorf("%w: missing player_id", ErrInvalidSession)
	case !in.EndReason.Valid():
		return fmt.Errorf("%w: unknown game_ended_reason %q", ErrInvalidSession, in.EndReason)
	case in.SnakeLength < MinSnakeLength:
		return fmt.Errorf("%w: snake_length %d below minimum %d", ErrInvalidSession, in.SnakeLength, MinSnakeLength)
	case in.Score < 0:
		return fmt.Errorf("%w: negative score", ErrInvalidSession)
	case in.DurationSeconds < 0:
		return fmt.Errorf("%w: negative duration_seconds", ErrInvalidSession)
	case in.FoodEaten < 0:
		return fmt.Errorf("%w: negative food_eaten", ErrInvalidSession)
	case in.SpeedBoostsUsed < 0:
		return fmt.Errorf("%w: negative speed_boosts_used", ErrInvalidSession)
	}
	return nil
}

// SessionRecord is an immutable, durably recorded game session.
type SessionRecord struct {
	ID              string    `json:"id"`
	PlayerID        string    `json:"player_id"`
	Score           int       `json:"score"`
	SnakeLength     int       `json:"snake_length"`
	DurationSeconds int       `json:"duration_seconds"`
	FoodEaten       int       `json:"food_eaten"`
	SpeedBoostsUsed int       `json:"speed_boosts_used"`
	EndReason       EndReason `json:"game_ended_reason"`
	RecordedAt      time.Time `json:"timestamp"`
}

// SessionEvent is the aggregation trigger placed on the queue after a session
// has been durably recorded. It carries everything the aggregators need so
// workers never have to re-read the session row.
type SessionEvent struct {
	SessionID       string
	PlayerID        string
	Score           int
	SnakeLength     int
	DurationSeconds int
	FoodEaten       int
	SpeedBoostsUsed int
	RecordedAt      time.Time
}

// Event builds the aggregation trigger for the record.
func (r SessionRecord) Event() SessionEvent {
	return SessionEvent{
		SessionID:       r.ID,
		PlayerID:        r.PlayerID,
		Score:           r.Score,
		SnakeLength:     r.SnakeLength,
		DurationSeconds: r.DurationSeconds,
		FoodEaten:       r.FoodEaten,
		SpeedBoostsUsed: r.SpeedBoostsUsed,
		RecordedAt:      r.RecordedAt,
	}
}
