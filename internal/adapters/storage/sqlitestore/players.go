package sqlitestore

import (
	"context"
	"fmt"
	"time"

	"github.com/slitherlab/slither/internal/domain/model"
)

// CreatePlayer inserts a new profile. Usernames are unique.
func (s *Store) CreatePlayer(ctx context.Context, p model.Player) error {
	const op = "players.create"
	defer observe(op, time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, username, email, created_at, last_active)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Username, p.Email, toMillis(p.CreatedAt), toMillis(p.LastActive),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	return classify(op, err)
}

// PlayerByID fetches one profile.
func (s *Store) PlayerByID(ctx context.Context, id string) (model.Player, error) {
	const op = "players.get"
	defer observe(op, time.Now())

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, created_at, last_active
		FROM players WHERE id = ?`, id)
	return scanPlayer(op, row)
}

// PlayerByUsername fetches one profile by its unique username.
func (s *Store) PlayerByUsername(ctx context.Context, username string) (model.Player, error) {
	const op = "players.get_by_username"
	defer observe(op, time.Now())

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, created_at, last_active
		FROM players WHERE username = ?`, username)
	return scanPlayer(op, row)
}

// UpdatePlayer applies the non-nil fields of upd and touches last_active.
// Returns the updated profile.
func (s *Store) UpdatePlayer(ctx context.Context, id string, upd model.PlayerUpdate) (model.Player, error) {
	const op = "players.update"
	defer observe(op, time.Now())

	current, err := s.PlayerByID(ctx, id)
	if err != nil {
		return model.Player{}, err
	}
	if upd.Username != nil {
		current.Username = *upd.Username
	}
	if upd.Email != nil {
		current.Email = *upd.Email
	}
	current.LastActive = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET username = ?, email = ?, last_active = ?
		WHERE id = ?`,
		current.Username, current.Email, toMillis(current.LastActive), id,
	)
	if isUniqueViolation(err) {
		return model.Player{}, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if err != nil {
		return model.Player{}, classify(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Player{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return current, nil
}

// TouchPlayer refreshes a profile's last_active timestamp.
func (s *Store) TouchPlayer(ctx context.Context, id string, at time.Time) error {
	const op = "players.touch"
	defer observe(op, time.Now())

	_, err := s.db.ExecContext(ctx,
		`UPDATE players SET last_active = ? WHERE id = ?`, toMillis(at), id)
	return classify(op, err)
}

// Username resolves the current username for a player id. This is the
// point-in-time snapshot source for leaderboard entries.
func (s *Store) Username(ctx context.Context, playerID string) (string, error) {
	const op = "players.username"
	defer observe(op, time.Now())

	var username string
	err := s.db.QueryRowContext(ctx,
		`SELECT username FROM players WHERE id = ?`, playerID).Scan(&username)
	if err != nil {
		return "", classify(op, err)
	}
	return username, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(op string, row rowScanner) (model.Player, error) {
	var p model.Player
	var createdAt, lastActive int64
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &createdAt, &lastActive); err != nil {
		return model.Player{}, classify(op, err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.LastActive = fromMillis(lastActive)
	return p, nil
}
