package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
)

// StatisticsDependencies defines the interface for statistics reads.
type StatisticsDependencies interface {
	Statistics(ctx context.Context, playerID string) (model.PlayerStatistics, error)
}

// StatisticsHandler handles per-player statistics requests.
type StatisticsHandler struct {
	deps StatisticsDependencies
}

// NewStatisticsHandler creates a statistics handler.
func NewStatisticsHandler(deps StatisticsDependencies) *StatisticsHandler {
	return &StatisticsHandler{deps: deps}
}

// HandleGetStatistics handles GET /statistics/{player_id} requests. A player
// with no recorded sessions gets the zero-valued record, not a 404.
func (h *StatisticsHandler) HandleGetStatistics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_statistics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/statistics/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	st, err := h.deps.Statistics(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, sqlitestore.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "storage_unavailable", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
