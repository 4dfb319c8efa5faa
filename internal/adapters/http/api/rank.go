package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/slitherlab/slither/internal/adapters/repository"
)

// RankDependencies defines the interface for rank lookups.
type RankDependencies interface {
	RankOf(ctx context.Context, playerID string) (repository.Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// rankResponse reports a player's competition rank: players with equal
// scores share a rank. Rank is null for players not on the leaderboard.
type rankResponse struct {
	PlayerID    string `json:"player_id"`
	Rank        *int   `json:"rank"`
	Score       *int   `json:"score,omitempty"`
	SnakeLength *int   `json:"snake_length,omitempty"`
	Username    string `json:"username,omitempty"`
}

// HandleGetRank handles GET /rank/{player_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/rank/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	entry, err := h.deps.RankOf(r.Context(), playerID)
	if errors.Is(err, repository.ErrNotFound) {
		// Unranked players are a valid answer, not an error.
		writeJSON(w, http.StatusOK, rankResponse{PlayerID: playerID, Rank: nil})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{
		PlayerID:    entry.PlayerID,
		Rank:        &entry.Rank,
		Score:       &entry.Score,
		SnakeLength: &entry.SnakeLength,
		Username:    entry.Username,
	})
}
