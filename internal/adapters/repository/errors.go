package repository

import "errors"

// Sentinel kinds for leaderboard index errors.
var (
	ErrNotFound     = errors.New("player not on leaderboard")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
