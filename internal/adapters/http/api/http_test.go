package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slitherlab/slither/internal/adapters/mq/queue"
	"github.com/slitherlab/slither/internal/adapters/repository"
	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/dedupe"
	"github.com/slitherlab/slither/internal/domain/model"
)

// fakeDeps implements Dependencies with canned behavior for handler tests.
type fakeDeps struct {
	dedupe.Deduper

	backpressure  bool
	usernameTaken bool
	recorded      []model.SessionInput
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{Deduper: dedupe.NewInMemoryDeduper()}
}

func (f *fakeDeps) RecordSession(ctx context.Context, in model.SessionInput) (model.SessionRecord, error) {
	if f.backpressure {
		return model.SessionRecord{}, queue.ErrFull
	}
	f.recorded = append(f.recorded, in)
	return model.SessionRecord{
		ID:         "srv-generated-id",
		PlayerID:   in.PlayerID,
		Score:      in.Score,
		RecordedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeDeps) RecentSessions(ctx context.Context, playerID string, limit int) ([]model.SessionRecord, error) {
	return []model.SessionRecord{{ID: "s1", PlayerID: playerID, Score: 10}}, nil
}

func (f *fakeDeps) CreatePlayer(ctx context.Context, in model.PlayerInput) (model.Player, error) {
	if f.usernameTaken {
		return model.Player{}, sqlitestore.ErrUsernameTaken
	}
	return model.Player{ID: "p1", Username: in.Username}, nil
}

func (f *fakeDeps) Player(ctx context.Context, id string) (model.Player, error) {
	if id != "p1" {
		return model.Player{}, sqlitestore.ErrNotFound
	}
	return model.Player{ID: "p1", Username: "viper"}, nil
}

func (f *fakeDeps) PlayerByUsername(ctx context.Context, username string) (model.Player, error) {
	if username != "viper" {
		return model.Player{}, sqlitestore.ErrNotFound
	}
	return model.Player{ID: "p1", Username: "viper"}, nil
}

func (f *fakeDeps) UpdatePlayer(ctx context.Context, id string, upd model.PlayerUpdate) (model.Player, error) {
	if id != "p1" {
		return model.Player{}, sqlitestore.ErrNotFound
	}
	p := model.Player{ID: "p1", Username: "viper"}
	if upd.Username != nil {
		p.Username = *upd.Username
	}
	return p, nil
}

func (f *fakeDeps) Top(ctx context.Context, n int) ([]repository.Entry, error) {
	entries := []repository.Entry{
		{Rank: 1, LeaderboardEntry: model.LeaderboardEntry{PlayerID: "p1", Username: "viper", Score: 100}},
		{Rank: 2, LeaderboardEntry: model.LeaderboardEntry{PlayerID: "p2", Username: "boa", Score: 50}},
	}
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

func (f *fakeDeps) RankOf(ctx context.Context, playerID string) (repository.Entry, error) {
	if playerID != "p1" {
		return repository.Entry{}, repository.ErrNotFound
	}
	return repository.Entry{
		Rank:             1,
		LeaderboardEntry: model.LeaderboardEntry{PlayerID: "p1", Username: "viper", Score: 100, SnakeLength: 20},
	}, nil
}

func (f *fakeDeps) Statistics(ctx context.Context, playerID string) (model.PlayerStatistics, error) {
	return model.NewPlayerStatistics(playerID), nil
}

func (f *fakeDeps) SaveGameState(ctx context.Context, in model.GameStateInput) (model.GameState, error) {
	return model.GameState{ID: "g1", PlayerID: in.PlayerID, Score: in.Score, IsActive: true}, nil
}

func (f *fakeDeps) LoadGameState(ctx context.Context, playerID string) (model.GameState, error) {
	if playerID != "p1" {
		return model.GameState{}, sqlitestore.ErrNotFound
	}
	return model.GameState{ID: "g1", PlayerID: playerID, IsActive: true}, nil
}

func (f *fakeDeps) DeleteGameState(ctx context.Context, playerID string) (int, error) {
	if playerID == "p1" {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeDeps) ExportPlayer(ctx context.Context, playerID string) (model.Export, error) {
	if playerID != "p1" {
		return model.Export{}, sqlitestore.ErrNotFound
	}
	return model.Export{PlayerID: playerID, Username: "viper", Version: model.ExportVersion}, nil
}

func (f *fakeDeps) ImportPlayer(ctx context.Context, playerID string, raw []byte) (model.ImportRecord, error) {
	payload, err := model.ParseImport(raw)
	if err != nil {
		return model.ImportRecord{}, err
	}
	return model.ImportRecord{ID: "i1", PlayerID: playerID, Payload: payload}, nil
}

func (f *fakeDeps) GetStats() map[string]any {
	return map[string]any{"leaderboard_size": 2}
}

func newTestMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps, 50, 10).Register(context.Background(), mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validSession = `{
	"player_id": "p1",
	"session_id": "client-1",
	"score": 42,
	"snake_length": 9,
	"duration_seconds": 120,
	"food_eaten": 4,
	"speed_boosts_used": 1,
	"game_ended_reason": "wall_collision"
}`

func TestPostSessionAccepted(t *testing.T) {
	deps := newFakeDeps()
	mux := newTestMux(deps)

	rec := doRequest(t, mux, http.MethodPost, "/sessions", validSession)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var ack ackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Status != "accepted" || ack.Duplicate {
		t.Fatalf("ack = %+v", ack)
	}
	if len(deps.recorded) != 1 {
		t.Fatalf("recorded %d sessions, want 1", len(deps.recorded))
	}
}

func TestPostSessionDuplicate(t *testing.T) {
	deps := newFakeDeps()
	mux := newTestMux(deps)

	first := doRequest(t, mux, http.MethodPost, "/sessions", validSession)
	if first.Code != http.StatusAccepted {
		t.Fatalf("first status = %d, want 202", first.Code)
	}
	second := doRequest(t, mux, http.MethodPost, "/sessions", validSession)
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", second.Code)
	}

	var ack ackResponse
	if err := json.Unmarshal(second.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Duplicate {
		t.Fatalf("ack = %+v, want duplicate", ack)
	}
	if len(deps.recorded) != 1 {
		t.Fatalf("recorded %d sessions, want 1", len(deps.recorded))
	}
}

func TestPostSessionValidation(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing player", `{"score":1,"snake_length":5,"game_ended_reason":"quit"}`},
		{"bad end reason", `{"player_id":"p1","snake_length":5,"game_ended_reason":"meteor"}`},
		{"short snake", `{"player_id":"p1","snake_length":2,"game_ended_reason":"quit"}`},
		{"negative score", `{"player_id":"p1","score":-1,"snake_length":5,"game_ended_reason":"quit"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodPost, "/sessions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPostSessionBackpressure(t *testing.T) {
	deps := newFakeDeps()
	deps.backpressure = true
	mux := newTestMux(deps)

	rec := doRequest(t, mux, http.MethodPost, "/sessions", validSession)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	// The client id must be retryable after the rollback.
	if deps.SeenAndRecord(context.Background(), "client-1") {
		t.Fatal("client session id still marked seen after backpressure")
	}
}

func TestGetSessions(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	rec := doRequest(t, mux, http.MethodGet, "/sessions/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var sessions []model.SessionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].PlayerID != "p1" {
		t.Fatalf("sessions = %+v", sessions)
	}

	if rec := doRequest(t, mux, http.MethodGet, "/sessions/p1?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestPlayerEndpoints(t *testing.T) {
	deps := newFakeDeps()
	mux := newTestMux(deps)

	rec := doRequest(t, mux, http.MethodPost, "/players", `{"username":"viper"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rec.Code)
	}

	if rec := doRequest(t, mux, http.MethodPost, "/players", `{"username":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank username status = %d, want 400", rec.Code)
	}

	deps.usernameTaken = true
	if rec := doRequest(t, mux, http.MethodPost, "/players", `{"username":"viper"}`); rec.Code != http.StatusConflict {
		t.Fatalf("taken username status = %d, want 409", rec.Code)
	}
	deps.usernameTaken = false

	if rec := doRequest(t, mux, http.MethodGet, "/players/p1", ""); rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/players/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing player status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodPut, "/players/p1", `{"username":"mamba"}`); rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", rec.Code)
	}
}

func TestPlayerByUsername(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	rec := doRequest(t, mux, http.MethodGet, "/players/username/viper", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var p model.Player
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode player: %v", err)
	}
	if p.ID != "p1" || p.Username != "viper" {
		t.Fatalf("player = %+v", p)
	}

	if rec := doRequest(t, mux, http.MethodGet, "/players/username/ghost", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing username status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodDelete, "/players/username/viper", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("wrong method status = %d, want 404", rec.Code)
	}
}

func TestGetLeaderboard(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	rec := doRequest(t, mux, http.MethodGet, "/leaderboard?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var rows []entryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Rank != 1 || rows[0].Username != "viper" {
		t.Fatalf("rows = %+v", rows)
	}

	if rec := doRequest(t, mux, http.MethodGet, "/leaderboard?limit=9999", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("over-limit status = %d, want 400", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/leaderboard?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero limit status = %d, want 400", rec.Code)
	}
	// No limit serves the full configured window.
	rec = doRequest(t, mux, http.MethodGet, "/leaderboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("default limit status = %d, want 200", rec.Code)
	}
	rows = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("default window returned %d rows, want every available row", len(rows))
	}
}

func TestGetRank(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	rec := doRequest(t, mux, http.MethodGet, "/rank/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ranked rankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("decode rank: %v", err)
	}
	if ranked.Rank == nil || *ranked.Rank != 1 {
		t.Fatalf("rank = %+v", ranked)
	}
	if ranked.SnakeLength == nil || *ranked.SnakeLength != 20 {
		t.Fatalf("snake length = %+v, want 20", ranked.SnakeLength)
	}

	// Unranked players answer with a null rank, not a 404.
	rec = doRequest(t, mux, http.MethodGet, "/rank/unknown", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unranked status = %d, want 200", rec.Code)
	}
	var unranked rankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &unranked); err != nil {
		t.Fatalf("decode rank: %v", err)
	}
	if unranked.Rank != nil {
		t.Fatalf("unranked rank = %v, want null", *unranked.Rank)
	}
}

func TestGetStatistics(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	rec := doRequest(t, mux, http.MethodGet, "/statistics/p9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st model.PlayerStatistics
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if st.PlayerID != "p9" || st.TotalGames != 0 || st.LongestSnake != model.MinSnakeLength {
		t.Fatalf("statistics = %+v", st)
	}
}

func TestGameStateEndpoints(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	save := `{"player_id":"p1","score":10,"snake_positions":[{"x":1,"y":1}],"food_position":{"x":2,"y":2},"direction":{"x":0,"y":1}}`
	if rec := doRequest(t, mux, http.MethodPost, "/save-game", save); rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if rec := doRequest(t, mux, http.MethodPost, "/save-game", `{"player_id":"p1","snake_positions":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty snake status = %d, want 400", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/load-game/p1", ""); rec.Code != http.StatusOK {
		t.Fatalf("load status = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/load-game/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing save status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodDelete, "/game-state/p1", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", rec.Code)
	}
}

func TestTransferEndpoints(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	if rec := doRequest(t, mux, http.MethodGet, "/export/p1", ""); rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, want 200", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/export/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing export status = %d, want 404", rec.Code)
	}

	valid := `{"player_id":"p1","username":"viper","statistics":{"player_id":"p1"},"recent_sessions":[],"export_timestamp":"2026-01-02T15:04:05Z","version":"1.0.0"}`
	if rec := doRequest(t, mux, http.MethodPost, "/import/p1", valid); rec.Code != http.StatusAccepted {
		t.Fatalf("import status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	badVersion := strings.Replace(valid, "1.0.0", "9.9.9", 1)
	if rec := doRequest(t, mux, http.MethodPost, "/import/p1", badVersion); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad version status = %d, want 400", rec.Code)
	}
	unknownField := strings.Replace(valid, `"username"`, `"user_name"`, 1)
	if rec := doRequest(t, mux, http.MethodPost, "/import/p1", unknownField); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", rec.Code)
	}
}

func TestMethodNotAllowedFallsThrough(t *testing.T) {
	mux := newTestMux(newFakeDeps())

	if rec := doRequest(t, mux, http.MethodDelete, "/leaderboard", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/sessions", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
