package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/slitherlab/slither/internal/adapters/mq/queue"
	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/dedupe"
	"github.com/slitherlab/slither/internal/domain/model"
	"github.com/slitherlab/slither/pkg/metrics"
)

// SessionDependencies defines the interface for session recording.
type SessionDependencies interface {
	dedupe.Deduper
	RecordSession(ctx context.Context, in model.SessionInput) (model.SessionRecord, error)
	RecentSessions(ctx context.Context, playerID string, limit int) ([]model.SessionRecord, error)
}

// SessionsHandler handles session submission and history requests.
type SessionsHandler struct {
	deps         SessionDependencies
	historyLimit int
}

// NewSessionsHandler creates a sessions handler. historyLimit bounds GET
// listings.
func NewSessionsHandler(deps SessionDependencies, historyLimit int) *SessionsHandler {
	return &SessionsHandler{deps: deps, historyLimit: historyLimit}
}

// HandlePostSession handles POST /sessions requests.
func (h *SessionsHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var in model.SessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		metrics.RecordSessionRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := in.Validate(); err != nil {
		metrics.RecordSessionRejected()
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	// Client-supplied session ids are idempotency keys; mark as seen first.
	if in.SessionID != "" && h.deps.SeenAndRecord(r.Context(), in.SessionID) {
		metrics.RecordSessionDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", SessionID: in.SessionID, Duplicate: true})
		return
	}

	rec, err := h.deps.RecordSession(r.Context(), in)
	if err != nil {
		if in.SessionID != "" {
			// Roll back the seen mark so the client can retry.
			h.deps.Unrecord(r.Context(), in.SessionID)
		}
		switch {
		case errors.Is(err, queue.ErrFull):
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		case errors.Is(err, model.ErrInvalidSession):
			metrics.RecordSessionRejected()
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		case errors.Is(err, sqlitestore.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "storage_unavailable", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	metrics.RecordSessionRecorded()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SessionID: rec.ID, Duplicate: false})
}

// HandleGetSessions handles GET /sessions/{player_id}?limit=N requests,
// most recent first.
func (h *SessionsHandler) HandleGetSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sessions"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/sessions/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n < limit {
			limit = n
		}
	}

	sessions, err := h.deps.RecentSessions(r.Context(), playerID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if sessions == nil {
		sessions = []model.SessionRecord{}
	}
	writeJSON(w, http.StatusOK, sessions)
}
