package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

// StatsForUpdate reads a player's statistics together with the version the
// optimistic CAS in PutStatsVersioned is keyed on. Returns ErrNotFound when
// the player has no record yet; the aggregator treats absence as the
// zero-valued starting state, not a failure.
func (s *Store) StatsForUpdate(ctx context.Context, playerID string) (model.PlayerStatistics, int64, error) {
	const op = "stats.get_for_update"
	defer observe(op, time.Now())

	row := s.db.QueryRowContext(ctx, `
		SELECT player_id, total_games, total_score, average_score, highest_score, longest_snake,
		       total_food_eaten, total_play_time_seconds, speed_boosts_used, last_updated, version
		FROM game_statistics WHERE player_id = ?`, playerID)

	var st model.PlayerStatistics
	var lastUpdated, version int64
	err := row.Scan(
		&st.PlayerID, &st.TotalGames, &st.TotalScore, &st.AverageScore, &st.HighestScore,
		&st.LongestSnake, &st.TotalFoodEaten, &st.TotalPlayTimeSeconds, &st.SpeedBoostsUsed,
		&lastUpdated, &version,
	)
	if err != nil {
		return model.PlayerStatistics{}, 0, classify(op, err)
	}
	st.LastUpdated = fromMillis(lastUpdated)
	return st, version, nil
}

// PutStatsVersioned writes st only if the stored version still equals
// expectedVersion. Version 0 means "no row yet" and inserts; stored rows are
// always at version 1 or higher, including the lazily created ones, so the
// two branches can never mistake each other. A concurrent writer invalidates
// the attempt with ErrConflict.
func (s *Store) PutStatsVersioned(ctx context.Context, st model.PlayerStatistics, expectedVersion int64) error {
	const op = "stats.put_versioned"
	defer observe(op, time.Now())

	var res sql.Result
	var err error
	if expectedVersion == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO game_statistics
				(player_id, total_games, total_score, average_score, highest_score, longest_snake,
				 total_food_eaten, total_play_time_seconds, speed_boosts_used, last_updated, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (player_id) DO NOTHING`,
			st.PlayerID, st.TotalGames, st.TotalScore, st.AverageScore, st.HighestScore,
			st.LongestSnake, st.TotalFoodEaten, st.TotalPlayTimeSeconds, st.SpeedBoostsUsed,
			toMillis(st.LastUpdated),
		)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE game_statistics SET
				total_games = ?, total_score = ?, average_score = ?, highest_score = ?,
				longest_snake = ?, total_food_eaten = ?, total_play_time_seconds = ?,
				speed_boosts_used = ?, last_updated = ?, version = version + 1
			WHERE player_id = ? AND version = ?`,
			st.TotalGames, st.TotalScore, st.AverageScore, st.HighestScore,
			st.LongestSnake, st.TotalFoodEaten, st.TotalPlayTimeSeconds, st.SpeedBoostsUsed,
			toMillis(st.LastUpdated), st.PlayerID, expectedVersion,
		)
	}
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return nil
}

// EnsureStats returns a player's statistics, creating the zero-valued record
// first when absent. This is the upsert-with-default primitive behind the
// lazy read path.
func (s *Store) EnsureStats(ctx context.Context, playerID string) (model.PlayerStatistics, error) {
	const op = "stats.ensure"
	defer observe(op, time.Now())

	def := model.NewPlayerStatistics(playerID)
	def.LastUpdated = time.Now().UTC()
	// Version starts at 1, like every stored row, so a later versioned write
	// takes the update branch instead of colliding with this row forever.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_statistics (player_id, longest_snake, last_updated, version)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (player_id) DO NOTHING`,
		playerID, def.LongestSnake, toMillis(def.LastUpdated),
	)
	if err != nil {
		return model.PlayerStatistics{}, classify(op, err)
	}

	st, _, err := s.StatsForUpdate(ctx, playerID)
	if errors.Is(err, ErrNotFound) {
		// Row vanished between upsert and read; surface as unavailable.
		return model.PlayerStatistics{}, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return st, err
}
