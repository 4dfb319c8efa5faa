package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
)

// PlayerDependencies defines the interface for player profile operations.
type PlayerDependencies interface {
	CreatePlayer(ctx context.Context, in model.PlayerInput) (model.Player, error)
	Player(ctx context.Context, id string) (model.Player, error)
	PlayerByUsername(ctx context.Context, username string) (model.Player, error)
	UpdatePlayer(ctx context.Context, id string, upd model.PlayerUpdate) (model.Player, error)
}

// PlayersHandler handles player profile requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleCreatePlayer handles POST /players requests.
func (h *PlayersHandler) HandleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_player"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var in model.PlayerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	p, err := h.deps.CreatePlayer(r.Context(), in)
	if err != nil {
		writePlayerError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandlePlayer handles GET and PUT /players/{id} requests.
func (h *PlayersHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.player"
	id := pathParam(r.URL.Path, "/players/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := h.deps.Player(r.Context(), id)
		if err != nil {
			writePlayerError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var upd model.PlayerUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := upd.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
			return
		}
		p, err := h.deps.UpdatePlayer(r.Context(), id, upd)
		if err != nil {
			writePlayerError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		http.NotFound(w, r)
	}
}

// HandlePlayerByUsername handles GET /players/username/{username} requests.
func (h *PlayersHandler) HandlePlayerByUsername(w http.ResponseWriter, r *http.Request) {
	const op = "api.player_by_username"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	username := pathParam(r.URL.Path, "/players/username/")
	if username == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	p, err := h.deps.PlayerByUsername(r.Context(), username)
	if err != nil {
		writePlayerError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writePlayerError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidPlayer):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
