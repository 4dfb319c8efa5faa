package sqlitestore

import (
	"context"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

// InsertSession durably records one immutable session row.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) error {
	const op = "sessions.insert"
	defer observe(op, time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_sessions
			(id, player_id, score, snake_length, duration_seconds, food_eaten, speed_boosts_used, end_reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PlayerID, rec.Score, rec.SnakeLength, rec.DurationSeconds,
		rec.FoodEaten, rec.SpeedBoostsUsed, string(rec.EndReason), toMillis(rec.RecordedAt),
	)
	return classify(op, err)
}

// DeleteSession removes one session row. Used to compensate a recording
// whose aggregation trigger could not be queued.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	const op = "sessions.delete"
	defer observe(op, time.Now())

	_, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = ?`, id)
	return classify(op, err)
}

// SessionsByPlayer lists a player's sessions, most recent first.
func (s *Store) SessionsByPlayer(ctx context.Context, playerID string, limit int) ([]model.SessionRecord, error) {
	const op = "sessions.list"
	defer observe(op, time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, score, snake_length, duration_seconds, food_eaten, speed_boosts_used, end_reason, recorded_at
		FROM game_sessions
		WHERE player_id = ?
		ORDER BY recorded_at DESC
		LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var reason string
		var recordedAt int64
		if err := rows.Scan(
			&rec.ID, &rec.PlayerID, &rec.Score, &rec.SnakeLength, &rec.DurationSeconds,
			&rec.FoodEaten, &rec.SpeedBoostsUsed, &reason, &recordedAt,
		); err != nil {
			return nil, classify(op, err)
		}
		rec.EndReason = model.EndReason(reason)
		rec.RecordedAt = fromMillis(recordedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}
