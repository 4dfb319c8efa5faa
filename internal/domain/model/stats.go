package model

import "time"

// PlayerStatistics holds the running totals for one player. A player has at
// most one record, keyed by PlayerID; absence is a valid starting state.
type PlayerStatistics struct {
	PlayerID             string    `json:"player_id"`
	TotalGames           int       `json:"total_games"`
	TotalScore           int       `json:"total_score"`
	AverageScore         float64   `json:"average_score"`
	HighestScore         int       `json:"highest_score"`
	LongestSnake         int       `json:"longest_snake"`
	TotalFoodEaten       int       `json:"total_food_eaten"`
	TotalPlayTimeSeconds int       `json:"total_play_time_seconds"`
	SpeedBoostsUsed      int       `json:"speed_boosts_used"`
	LastUpdated          time.Time `json:"last_updated"`
}

// NewPlayerStatistics returns the zero-valued record synthesized when a player
// has no statistics yet.
func NewPlayerStatistics(playerID string) PlayerStatistics {
	return PlayerStatistics{
		PlayerID:     playerID,
		LongestSnake: MinSnakeLength,
	}
}

// Apply folds one session into the running totals and returns the result.
// AverageScore is always TotalScore / TotalGames at full float64 precision.
func (s PlayerStatistics) Apply(ev SessionEvent, now time.Time) PlayerStatistics {
	next := s
	next.TotalGames = s.TotalGames + 1
	next.TotalScore = s.TotalScore + ev.Score
	next.AverageScore = float64(next.TotalScore) / float64(next.TotalGames)
	next.HighestScore = maxInt(s.HighestScore, ev.Score)
	next.LongestSnake = maxInt(s.LongestSnake, ev.SnakeLength)
	next.TotalFoodEaten = s.TotalFoodEaten + ev.FoodEaten
	next.TotalPlayTimeSeconds = s.TotalPlayTimeSeconds + ev.DurationSeconds
	next.SpeedBoostsUsed = s.SpeedBoostsUsed + ev.SpeedBoostsUsed
	next.LastUpdated = now.UTC()
	return next
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
