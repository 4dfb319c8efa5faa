package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
)

// GameStateDependencies defines the interface for save game operations.
type GameStateDependencies interface {
	SaveGameState(ctx context.Context, in model.GameStateInput) (model.GameState, error)
	LoadGameState(ctx context.Context, playerID string) (model.GameState, error)
	DeleteGameState(ctx context.Context, playerID string) (int, error)
}

// GameStateHandler handles save, load and delete of in-progress games.
type GameStateHandler struct {
	deps GameStateDependencies
}

// NewGameStateHandler creates a game state handler.
func NewGameStateHandler(deps GameStateDependencies) *GameStateHandler {
	return &GameStateHandler{deps: deps}
}

// HandleSaveGame handles POST /save-game requests. Saving supersedes any
// previous snapshot for the player.
func (h *GameStateHandler) HandleSaveGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var in model.GameStateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	gs, err := h.deps.SaveGameState(r.Context(), in)
	if err != nil {
		writeGameStateError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, gs)
}

// HandleLoadGame handles GET /load-game/{player_id} requests.
func (h *GameStateHandler) HandleLoadGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.load_game"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/load-game/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	gs, err := h.deps.LoadGameState(r.Context(), playerID)
	if err != nil {
		writeGameStateError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

// HandleDeleteGameState handles DELETE /game-state/{player_id} requests.
func (h *GameStateHandler) HandleDeleteGameState(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_game_state"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	playerID := pathParam(r.URL.Path, "/game-state/")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	n, err := h.deps.DeleteGameState(r.Context(), playerID)
	if err != nil {
		writeGameStateError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func writeGameStateError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidGameState):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, sqlitestore.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
