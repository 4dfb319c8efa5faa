package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

// snapshotPayload is the JSON blob stored per game state row; identifying
// columns stay relational so queries never parse it.
type snapshotPayload struct {
	Score          int           `json:"score"`
	HighScore      int           `json:"high_score"`
	SnakePositions []model.Point `json:"snake_positions"`
	FoodPosition   model.Point   `json:"food_position"`
	Direction      model.Point   `json:"direction"`
	GameSpeed      int           `json:"game_speed"`
}

// SaveGameState deactivates the player's previous active snapshots and
// inserts the new one in a single transaction.
func (s *Store) SaveGameState(ctx context.Context, gs model.GameState) error {
	const op = "game_states.save"
	defer observe(op, time.Now())

	payload, err := json.Marshal(snapshotPayload{
		Score:          gs.Score,
		HighScore:      gs.HighScore,
		SnakePositions: gs.SnakePositions,
		FoodPosition:   gs.FoodPosition,
		Direction:      gs.Direction,
		GameSpeed:      gs.GameSpeed,
	})
	if err != nil {
		return fmt.Errorf("%s: marshal snapshot: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE game_states SET is_active = 0 WHERE player_id = ? AND is_active = 1`,
		gs.PlayerID,
	); err != nil {
		return classify(op, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO game_states (id, player_id, snapshot, saved_at, is_active)
		VALUES (?, ?, ?, ?, 1)`,
		gs.ID, gs.PlayerID, string(payload), toMillis(gs.SavedAt),
	); err != nil {
		return classify(op, err)
	}
	return classify(op, tx.Commit())
}

// ActiveGameState loads the most recent active snapshot for a player.
func (s *Store) ActiveGameState(ctx context.Context, playerID string) (model.GameState, error) {
	const op = "game_states.load"
	defer observe(op, time.Now())

	row := s.db.QueryRowContext(ctx, `
		SELECT id, player_id, snapshot, saved_at
		FROM game_states
		WHERE player_id = ? AND is_active = 1
		ORDER BY saved_at DESC
		LIMIT 1`, playerID)

	var gs model.GameState
	var payload string
	var savedAt int64
	if err := row.Scan(&gs.ID, &gs.PlayerID, &payload, &savedAt); err != nil {
		return model.GameState{}, classify(op, err)
	}

	var snap snapshotPayload
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return model.GameState{}, fmt.Errorf("%s: unmarshal snapshot: %w", op, err)
	}
	gs.Score = snap.Score
	gs.HighScore = snap.HighScore
	gs.SnakePositions = snap.SnakePositions
	gs.FoodPosition = snap.FoodPosition
	gs.Direction = snap.Direction
	gs.GameSpeed = snap.GameSpeed
	gs.SavedAt = fromMillis(savedAt)
	gs.IsActive = true
	return gs, nil
}

// DeactivateGameStates marks all of a player's active snapshots inactive and
// returns how many rows changed.
func (s *Store) DeactivateGameStates(ctx context.Context, playerID string) (int, error) {
	const op = "game_states.deactivate"
	defer observe(op, time.Now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE game_states SET is_active = 0 WHERE player_id = ? AND is_active = 1`,
		playerID,
	)
	if err != nil {
		return 0, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err)
	}
	return int(n), nil
}
