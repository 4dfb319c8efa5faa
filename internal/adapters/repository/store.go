// Package repository holds the in-memory ranked leaderboard index.
package repository

import (
	"context"

	"github.com/slitherlab/slither/internal/domain/model"
)

// Entry is a leaderboard row together with its computed rank.
type Entry struct {
	Rank int
	model.LeaderboardEntry
}

// Index provides read/write access to the ranked leaderboard state.
//
// Listing order is score descending, ties broken by the earlier AchievedAt,
// then PlayerID ascending. Top assigns positional ranks 1..n over that order;
// RankOf reports the competition rank, one plus the number of strictly
// greater scores, so tied players share a rank.
type Index interface {
	// UpdateIfHigher records entry as the player's best when its score is
	// strictly greater than the stored one, or when the player is new.
	// Returns whether the index changed.
	UpdateIfHigher(ctx context.Context, e model.LeaderboardEntry) (bool, error)

	// Top returns up to n entries in listing order with positional ranks.
	Top(ctx context.Context, n int) ([]Entry, error)

	// RankOf returns a player's entry with its competition rank.
	// Returns ErrNotFound for players without a leaderboard entry.
	RankOf(ctx context.Context, playerID string) (Entry, error)

	// Count returns the number of players on the leaderboard.
	Count(ctx context.Context) int
}
