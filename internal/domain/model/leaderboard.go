package model

import "time"

// LeaderboardEntry is a player's single best recorded score. At most one live
// entry exists per player, and its Score always equals the player's current
// highest recorded score.
//
// Username is a snapshot taken when the entry was created or replaced; later
// profile changes do not retroactively update it.
type LeaderboardEntry struct {
	PlayerID    string    `json:"player_id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	SnakeLength int       `json:"snake_length"`
	AchievedAt  time.Time `json:"timestamp"`
}

// Beats reports whether e should replace existing: strictly greater score
// only. Equal scores keep the incumbent (and its earlier timestamp).
func (e LeaderboardEntry) Beats(existing LeaderboardEntry) bool {
	return e.Score > existing.Score
}

// RankedBefore is the listing order: score descending, ties broken by the
// earlier AchievedAt, then by PlayerID for determinism.
func (e LeaderboardEntry) RankedBefore(other LeaderboardEntry) bool {
	if e.Score != other.Score {
		return e.Score > other.Score
	}
	if !e.AchievedAt.Equal(other.AchievedAt) {
		return e.AchievedAt.Before(other.AchievedAt)
	}
	return e.PlayerID < other.PlayerID
}
