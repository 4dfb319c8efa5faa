package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/slitherlab/slither/internal/adapters/repository"
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	Top(ctx context.Context, n int) ([]repository.Entry, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

// entryResponse is one leaderboard row. Ranks here are positional: tied
// scores occupy distinct positions in listing order.
type entryResponse struct {
	Rank        int       `json:"rank"`
	PlayerID    string    `json:"player_id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	SnakeLength int       `json:"snake_length"`
	AchievedAt  time.Time `json:"achieved_at"`
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	// Without an explicit limit the full configured window is served.
	n := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	entries, err := h.deps.Top(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Rank:        e.Rank,
			PlayerID:    e.PlayerID,
			Username:    e.Username,
			Score:       e.Score,
			SnakeLength: e.SnakeLength,
			AchievedAt:  e.AchievedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
