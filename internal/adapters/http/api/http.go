// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/slitherlab/slither/internal/adapters/repository"
	"github.com/slitherlab/slither/internal/domain/dedupe"
	"github.com/slitherlab/slither/internal/domain/model"
)

// Dependencies bundles everything the HTTP handlers need. Using an interface
// bundle keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	dedupe.Deduper

	RecordSession(ctx context.Context, in model.SessionInput) (model.SessionRecord, error)
	RecentSessions(ctx context.Context, playerID string, limit int) ([]model.SessionRecord, error)

	CreatePlayer(ctx context.Context, in model.PlayerInput) (model.Player, error)
	Player(ctx context.Context, id string) (model.Player, error)
	PlayerByUsername(ctx context.Context, username string) (model.Player, error)
	UpdatePlayer(ctx context.Context, id string, upd model.PlayerUpdate) (model.Player, error)

	Top(ctx context.Context, n int) ([]repository.Entry, error)
	RankOf(ctx context.Context, playerID string) (repository.Entry, error)

	Statistics(ctx context.Context, playerID string) (model.PlayerStatistics, error)

	SaveGameState(ctx context.Context, in model.GameStateInput) (model.GameState, error)
	LoadGameState(ctx context.Context, playerID string) (model.GameState, error)
	DeleteGameState(ctx context.Context, playerID string) (int, error)

	ExportPlayer(ctx context.Context, playerID string) (model.Export, error)
	ImportPlayer(ctx context.Context, playerID string, raw []byte) (model.ImportRecord, error)

	GetStats() map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	sessionsHandler    *SessionsHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	statisticsHandler  *StatisticsHandler
	gameStateHandler   *GameStateHandler
	transferHandler    *TransferHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// NewServer creates an API server with all handlers. maxLeaderboardLimit caps
// GET /leaderboard; historyLimit bounds GET /sessions listings.
func NewServer(deps Dependencies, maxLeaderboardLimit, historyLimit int) *Server {
	return &Server{
		sessionsHandler:    NewSessionsHandler(deps, historyLimit),
		playersHandler:     NewPlayersHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		statisticsHandler:  NewStatisticsHandler(deps),
		gameStateHandler:   NewGameStateHandler(deps),
		transferHandler:    NewTransferHandler(deps),
		statsHandler:       NewStatsHandler(deps),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandlePostSession, "sessions"))
	mux.HandleFunc("/sessions/", MetricsMiddleware(s.sessionsHandler.HandleGetSessions, "sessions"))
	mux.HandleFunc("/players", MetricsMiddleware(s.playersHandler.HandleCreatePlayer, "players"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandlePlayer, "players"))
	mux.HandleFunc("/players/username/", MetricsMiddleware(s.playersHandler.HandlePlayerByUsername, "players"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/statistics/", MetricsMiddleware(s.statisticsHandler.HandleGetStatistics, "statistics"))
	mux.HandleFunc("/save-game", MetricsMiddleware(s.gameStateHandler.HandleSaveGame, "save_game"))
	mux.HandleFunc("/load-game/", MetricsMiddleware(s.gameStateHandler.HandleLoadGame, "load_game"))
	mux.HandleFunc("/game-state/", MetricsMiddleware(s.gameStateHandler.HandleDeleteGameState, "game_state"))
	mux.HandleFunc("/export/", MetricsMiddleware(s.transferHandler.HandleExport, "export"))
	mux.HandleFunc("/import/", MetricsMiddleware(s.transferHandler.HandleImport, "import"))
}

type ackResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// pathParam extracts the single path segment after prefix, or "" when the
// path has a different shape.
func pathParam(path, prefix string) string {
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return ""
	}
	param := path[len(prefix):]
	for i := 0; i < len(param); i++ {
		if param[i] == '/' {
			return ""
		}
	}
	return param
}
