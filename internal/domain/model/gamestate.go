package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidGameState marks malformed game-state snapshots.
var ErrInvalidGameState = errors.New("invalid game state")

// DefaultGameSpeed is the tick interval in milliseconds for a fresh game.
const DefaultGameSpeed = 150

// Point is a cell on the game grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GameState is a resumable mid-game snapshot. A player has at most one active
// snapshot; saving a new one deactivates the previous.
type GameState struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"player_id"`
	Score          int       `json:"score"`
	HighScore      int       `json:"high_score"`
	SnakePositions []Point   `json:"snake_positions"`
	FoodPosition   Point     `json:"food_position"`
	Direction      Point     `json:"direction"`
	GameSpeed      int       `json:"game_speed"`
	SavedAt        time.Time `json:"timestamp"`
	IsActive       bool      `json:"is_active"`
}

// GameStateInput is a save-game request.
type GameStateInput struct {
	PlayerID       string  `json:"player_id"`
	Score          int     `json:"score"`
	HighScore      int     `json:"high_score"`
	SnakePositions []Point `json:"snake_positions"`
	FoodPosition   Point   `json:"food_position"`
	Direction      Point   `json:"direction"`
	GameSpeed      int     `json:"game_speed"`
}

// Validate checks the snapshot input.
func (in GameStateInput) Validate() error {
	switch {
	case strings.TrimSpace(in.PlayerID) == "":
		return fmt.Errorf("%w: missing player_id", ErrInvalidGameState)
	case len(in.SnakePositions) == 0:
		return fmt.Errorf("%w: empty snake_positions", ErrInvalidGameState)
	}
	return nil
}
