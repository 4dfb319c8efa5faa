package sqlitestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/slitherlab/slither/internal/domain/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestPlayer(t *testing.T, s *Store, username string) model.Player {
	t.Helper()
	now := time.Now().UTC()
	p := model.Player{
		ID:         uuid.NewString(),
		Username:   username,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("CreatePlayer(%s) failed: %v", username, err)
	}
	return p
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPlayerLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newTestPlayer(t, s, "viper")

	got, err := s.PlayerByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("PlayerByID failed: %v", err)
	}
	if got.Username != "viper" {
		t.Fatalf("username = %q, want viper", got.Username)
	}

	byName, err := s.PlayerByUsername(ctx, "viper")
	if err != nil {
		t.Fatalf("PlayerByUsername failed: %v", err)
	}
	if byName.ID != p.ID {
		t.Fatalf("id by username = %q, want %q", byName.ID, p.ID)
	}

	if _, err := s.PlayerByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	name, err := s.Username(ctx, p.ID)
	if err != nil || name != "viper" {
		t.Fatalf("Username = %q, %v", name, err)
	}
}

func TestCreatePlayerUsernameTaken(t *testing.T) {
	s := newTestStore(t)
	newTestPlayer(t, s, "mamba")

	dup := model.Player{
		ID:         uuid.NewString(),
		Username:   "mamba",
		CreatedAt:  time.Now().UTC(),
		LastActive: time.Now().UTC(),
	}
	if err := s.CreatePlayer(context.Background(), dup); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUpdatePlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := newTestPlayer(t, s, "boa")
	newTestPlayer(t, s, "cobra")

	email := "boa@example.com"
	upd, err := s.UpdatePlayer(ctx, p.ID, model.PlayerUpdate{Email: &email})
	if err != nil {
		t.Fatalf("UpdatePlayer failed: %v", err)
	}
	if upd.Email != email || upd.Username != "boa" {
		t.Fatalf("updated player = %+v", upd)
	}

	taken := "cobra"
	if _, err := s.UpdatePlayer(ctx, p.ID, model.PlayerUpdate{Username: &taken}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if _, err := s.UpdatePlayer(ctx, "missing", model.PlayerUpdate{Email: &email}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionsByPlayerOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := newTestPlayer(t, s, "adder")

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		rec := model.SessionRecord{
			ID:          uuid.NewString(),
			PlayerID:    p.ID,
			Score:       10 * (i + 1),
			SnakeLength: 3 + i,
			EndReason:   model.EndReasonWallCollision,
			RecordedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := s.InsertSession(ctx, rec); err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
	}

	got, err := s.SessionsByPlayer(ctx, p.ID, 2)
	if err != nil {
		t.Fatalf("SessionsByPlayer failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Score != 30 || got[1].Score != 20 {
		t.Fatalf("recent-first order broken: %d, %d", got[0].Score, got[1].Score)
	}
	if got[0].EndReason != model.EndReasonWallCollision {
		t.Fatalf("end reason round trip = %q", got[0].EndReason)
	}
}

func TestStatsVersionedWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const playerID = "p-stats"

	if _, _, err := s.StatsForUpdate(ctx, playerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on absent stats, got %v", err)
	}

	st := model.NewPlayerStatistics(playerID)
	st.TotalGames = 1
	st.TotalScore = 10
	st.AverageScore = 10
	st.HighestScore = 10
	st.LastUpdated = time.Now().UTC()

	if err := s.PutStatsVersioned(ctx, st, 0); err != nil {
		t.Fatalf("initial insert failed: %v", err)
	}

	// Second writer still holding version 0 loses.
	if err := s.PutStatsVersioned(ctx, st, 0); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for stale insert, got %v", err)
	}

	read, version, err := s.StatsForUpdate(ctx, playerID)
	if err != nil {
		t.Fatalf("StatsForUpdate failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}
	if read.TotalScore != 10 {
		t.Fatalf("total score = %d, want 10", read.TotalScore)
	}

	read.TotalGames = 2
	read.TotalScore = 35
	read.AverageScore = 17.5
	if err := s.PutStatsVersioned(ctx, read, version); err != nil {
		t.Fatalf("versioned update failed: %v", err)
	}
	if err := s.PutStatsVersioned(ctx, read, version); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for stale update, got %v", err)
	}

	final, version, err := s.StatsForUpdate(ctx, playerID)
	if err != nil {
		t.Fatalf("StatsForUpdate failed: %v", err)
	}
	if version != 2 || final.TotalScore != 35 {
		t.Fatalf("final = version %d score %d, want 2 / 35", version, final.TotalScore)
	}
}

func TestEnsureStatsLazyDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := s.EnsureStats(ctx, "p-lazy")
	if err != nil {
		t.Fatalf("EnsureStats failed: %v", err)
	}
	if st.TotalGames != 0 || st.TotalScore != 0 {
		t.Fatalf("fresh stats not zero valued: %+v", st)
	}
	if st.LongestSnake != model.MinSnakeLength {
		t.Fatalf("longest snake = %d, want %d", st.LongestSnake, model.MinSnakeLength)
	}

	// Existing records are returned untouched.
	got, version, err := s.StatsForUpdate(ctx, "p-lazy")
	if err != nil {
		t.Fatalf("StatsForUpdate failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("lazily created row at version %d, want 1", version)
	}
	got.TotalGames = 5
	got.TotalScore = 50
	got.AverageScore = 10
	if err := s.PutStatsVersioned(ctx, got, version); err != nil {
		t.Fatalf("PutStatsVersioned failed: %v", err)
	}

	again, err := s.EnsureStats(ctx, "p-lazy")
	if err != nil {
		t.Fatalf("EnsureStats failed: %v", err)
	}
	if again.TotalGames != 5 {
		t.Fatalf("EnsureStats reset an existing record: %+v", again)
	}
}

func TestUpsertEntryIfHigher(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := model.LeaderboardEntry{
		PlayerID: "p1", Username: "one", Score: 100, SnakeLength: 10, AchievedAt: base,
	}

	changed, err := s.UpsertEntryIfHigher(ctx, first)
	if err != nil || !changed {
		t.Fatalf("insert: changed=%v err=%v", changed, err)
	}

	// Tie does not replace; the incumbent keeps its timestamp.
	tie := first
	tie.AchievedAt = base.Add(time.Minute)
	changed, err = s.UpsertEntryIfHigher(ctx, tie)
	if err != nil {
		t.Fatalf("tie upsert failed: %v", err)
	}
	if changed {
		t.Fatal("tie replaced the incumbent")
	}

	lower := first
	lower.Score = 50
	changed, err = s.UpsertEntryIfHigher(ctx, lower)
	if err != nil {
		t.Fatalf("lower upsert failed: %v", err)
	}
	if changed {
		t.Fatal("lower score replaced the incumbent")
	}

	higher := first
	higher.Score = 150
	higher.AchievedAt = base.Add(2 * time.Minute)
	changed, err = s.UpsertEntryIfHigher(ctx, higher)
	if err != nil || !changed {
		t.Fatalf("higher upsert: changed=%v err=%v", changed, err)
	}

	got, err := s.EntryByPlayer(ctx, "p1")
	if err != nil {
		t.Fatalf("EntryByPlayer failed: %v", err)
	}
	if got.Score != 150 || !got.AchievedAt.Equal(higher.AchievedAt) {
		t.Fatalf("entry = %+v", got)
	}
}

func TestTopEntriesOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	entries := []model.LeaderboardEntry{
		{PlayerID: "a", Username: "a", Score: 50, AchievedAt: base.Add(2 * time.Minute)},
		{PlayerID: "b", Username: "b", Score: 90, AchievedAt: base},
		{PlayerID: "c", Username: "c", Score: 50, AchievedAt: base},
		{PlayerID: "d", Username: "d", Score: 70, AchievedAt: base},
	}
	for _, e := range entries {
		if _, err := s.UpsertEntryIfHigher(ctx, e); err != nil {
			t.Fatalf("upsert %s failed: %v", e.PlayerID, err)
		}
	}

	top, err := s.TopEntries(ctx, 3)
	if err != nil {
		t.Fatalf("TopEntries failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	// 90 first, 70 second, then the earlier of the tied 50s.
	wantOrder := []string{"b", "d", "c"}
	for i, want := range wantOrder {
		if top[i].PlayerID != want {
			t.Fatalf("position %d = %s, want %s", i, top[i].PlayerID, want)
		}
	}

	all, err := s.AllEntries(ctx)
	if err != nil {
		t.Fatalf("AllEntries failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("AllEntries len = %d, want 4", len(all))
	}

	n, err := s.CountScoresAbove(ctx, 50)
	if err != nil {
		t.Fatalf("CountScoresAbove failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("count above 50 = %d, want 2", n)
	}
}

func TestGameStateSaveLoadDeactivate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	gs := model.GameState{
		ID:             uuid.NewString(),
		PlayerID:       "p-state",
		Score:          42,
		HighScore:      90,
		SnakePositions: []model.Point{{X: 1, Y: 2}, {X: 1, Y: 3}, {X: 1, Y: 4}},
		FoodPosition:   model.Point{X: 5, Y: 5},
		Direction:      model.Point{X: 0, Y: 1},
		GameSpeed:      model.DefaultGameSpeed,
		SavedAt:        now,
	}
	if err := s.SaveGameState(ctx, gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}

	// A second save supersedes the first.
	next := gs
	next.ID = uuid.NewString()
	next.Score = 60
	next.SavedAt = now.Add(time.Second)
	if err := s.SaveGameState(ctx, next); err != nil {
		t.Fatalf("second SaveGameState failed: %v", err)
	}

	got, err := s.ActiveGameState(ctx, "p-state")
	if err != nil {
		t.Fatalf("ActiveGameState failed: %v", err)
	}
	if got.ID != next.ID || got.Score != 60 {
		t.Fatalf("active state = %+v", got)
	}
	if len(got.SnakePositions) != 3 || got.SnakePositions[2] != (model.Point{X: 1, Y: 4}) {
		t.Fatalf("snapshot round trip broken: %+v", got.SnakePositions)
	}
	if !got.IsActive {
		t.Fatal("loaded state not marked active")
	}

	n, err := s.DeactivateGameStates(ctx, "p-state")
	if err != nil {
		t.Fatalf("DeactivateGameStates failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("deactivated %d rows, want 1", n)
	}
	if _, err := s.ActiveGameState(ctx, "p-state"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after deactivate, got %v", err)
	}
}

func TestArchiveImport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := model.ImportRecord{
		ID:       uuid.NewString(),
		PlayerID: "p-import",
		Payload: model.Export{
			PlayerID:        "p-import",
			Username:        "imported",
			Statistics:      model.NewPlayerStatistics("p-import"),
			ExportTimestamp: time.Now().UTC(),
			Version:         model.ExportVersion,
		},
		ImportedAt: time.Now().UTC(),
	}
	if err := s.ArchiveImport(ctx, rec); err != nil {
		t.Fatalf("ArchiveImport failed: %v", err)
	}
}
