package sqlitestore

import "errors"

// Sentinel kinds for storage errors.
var (
	// ErrNotFound marks reads for absent rows on paths that do not lazily create.
	ErrNotFound = errors.New("record not found")

	// ErrConflict marks a versioned conditional update invalidated by a
	// concurrent writer. Callers retry with a fresh read, bounded.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrUsernameTaken marks a player create or update that collides with an
	// existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUnavailable marks storage failures that are retryable later.
	ErrUnavailable = errors.New("storage unavailable")
)
