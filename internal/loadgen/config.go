package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumPlayers  int           // Number of players to register
	NumSessions int           // Number of sessions to generate
	TopN        int           // Number of top entries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated sessions
	LogFile     string        // Log file for run output
	Verbose     bool          // Enable verbose logging
}

// Session is the submission payload.
type Session struct {
	SessionID       string `json:"session_id"`
	PlayerID        string `json:"player_id"`
	Score           int    `json:"score"`
	SnakeLength     int    `json:"snake_length"`
	DurationSeconds int    `json:"duration_seconds"`
	FoodEaten       int    `json:"food_eaten"`
	SpeedBoostsUsed int    `json:"speed_boosts_used"`
	EndReason       string `json:"game_ended_reason"`
}

// Entry is a leaderboard row as served by the API.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// RankResponse is the reply to GET /rank/{player_id}. Rank is null for
// unranked players.
type RankResponse struct {
	PlayerID string `json:"player_id"`
	Rank     *int   `json:"rank"`
	Score    *int   `json:"score,omitempty"`
}

// Statistics mirrors the aggregated totals returned by the API.
type Statistics struct {
	PlayerID     string  `json:"player_id"`
	TotalGames   int     `json:"total_games"`
	TotalScore   int     `json:"total_score"`
	AverageScore float64 `json:"average_score"`
	HighestScore int     `json:"highest_score"`
	LongestSnake int     `json:"longest_snake"`
}

// AckResponse is the reply to a session submission.
type AckResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	PlayersRegistered  int
	SessionsGenerated  int
	SessionsSubmitted  int
	SessionsSuccessful int
	SessionsDuplicate  int
	SessionsThrottled  int
	SessionsFailed     int
	RanksRetrieved     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
