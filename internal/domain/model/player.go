package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPlayer marks player inputs rejected at the boundary.
var ErrInvalidPlayer = errors.New("invalid player input")

// Player is a player profile. It doubles as the username directory for
// leaderboard snapshots.
type Player struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// PlayerInput creates a new player profile.
type PlayerInput struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Validate checks the profile creation input.
func (in PlayerInput) Validate() error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidPlayer)
	}
	return nil
}

// PlayerUpdate carries optional profile changes; nil fields are untouched.
type PlayerUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Validate rejects updates that would blank the username.
func (u PlayerUpdate) Validate() error {
	if u.Username != nil && strings.TrimSpace(*u.Username) == "" {
		return fmt.Errorf("%w: username must not be blank", ErrInvalidPlayer)
	}
	return nil
}
