package sqlitestore

import (
	"context"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

// UpsertEntryIfHigher inserts the entry, or replaces the stored one in a
// single atomic statement when the candidate score is strictly greater.
// Returns whether the row changed. Ties and lower scores leave the incumbent
// untouched, including its timestamp.
func (s *Store) UpsertEntryIfHigher(ctx context.Context, e model.LeaderboardEntry) (bool, error) {
	const op = "leaderboard.upsert_if_higher"
	defer observe(op, time.Now())

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO leaderboard (player_id, username, score, snake_length, achieved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			username = excluded.username,
			score = excluded.score,
			snake_length = excluded.snake_length,
			achieved_at = excluded.achieved_at
		WHERE excluded.score > leaderboard.score`,
		e.PlayerID, e.Username, e.Score, e.SnakeLength, toMillis(e.AchievedAt),
	)
	if err != nil {
		return false, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(op, err)
	}
	return n > 0, nil
}

// EntryByPlayer fetches a player's live leaderboard entry.
func (s *Store) EntryByPlayer(ctx context.Context, playerID string) (model.LeaderboardEntry, error) {
	const op = "leaderboard.get"
	defer observe(op, time.Now())

	row := s.db.QueryRowContext(ctx, `
		SELECT player_id, username, score, snake_length, achieved_at
		FROM leaderboard WHERE player_id = ?`, playerID)

	var e model.LeaderboardEntry
	var achievedAt int64
	if err := row.Scan(&e.PlayerID, &e.Username, &e.Score, &e.SnakeLength, &achievedAt); err != nil {
		return model.LeaderboardEntry{}, classify(op, err)
	}
	e.AchievedAt = fromMillis(achievedAt)
	return e, nil
}

// TopEntries returns up to limit entries in listing order: score descending,
// ties broken by the earlier achieved_at.
func (s *Store) TopEntries(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	const op = "leaderboard.top"
	defer observe(op, time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, username, score, snake_length, achieved_at
		FROM leaderboard
		ORDER BY score DESC, achieved_at ASC, player_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var achievedAt int64
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Score, &e.SnakeLength, &achievedAt); err != nil {
			return nil, classify(op, err)
		}
		e.AchievedAt = fromMillis(achievedAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// AllEntries streams every live entry; used to seed the in-memory ranked
// index at startup.
func (s *Store) AllEntries(ctx context.Context) ([]model.LeaderboardEntry, error) {
	const op = "leaderboard.all"
	defer observe(op, time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, username, score, snake_length, achieved_at
		FROM leaderboard`)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var achievedAt int64
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Score, &e.SnakeLength, &achievedAt); err != nil {
			return nil, classify(op, err)
		}
		e.AchievedAt = fromMillis(achievedAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// CountScoresAbove counts live entries with a strictly greater score.
func (s *Store) CountScoresAbove(ctx context.Context, score int) (int, error) {
	const op = "leaderboard.count_above"
	defer observe(op, time.Now())

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leaderboard WHERE score > ?`, score).Scan(&n)
	if err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}
