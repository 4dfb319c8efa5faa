package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
	"github.com/slitherlab/slither/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeStorage is an in-memory Storage that can lose a configurable number of
// version races before letting a write through.
type fakeStorage struct {
	mu        sync.Mutex
	records   map[string]model.PlayerStatistics
	versions  map[string]int64
	conflicts int
	putCalls  int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		records:  make(map[string]model.PlayerStatistics),
		versions: make(map[string]int64),
	}
}

func (f *fakeStorage) StatsForUpdate(ctx context.Context, playerID string) (model.PlayerStatistics, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.records[playerID]
	if !ok {
		return model.PlayerStatistics{}, 0, sqlitestore.ErrNotFound
	}
	return st, f.versions[playerID], nil
}

func (f *fakeStorage) PutStatsVersioned(ctx context.Context, st model.PlayerStatistics, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.conflicts > 0 {
		f.conflicts--
		return sqlitestore.ErrConflict
	}
	if f.versions[st.PlayerID] != expectedVersion {
		return sqlitestore.ErrConflict
	}
	f.records[st.PlayerID] = st
	f.versions[st.PlayerID] = expectedVersion + 1
	return nil
}

func sessionEvent(playerID string, score int) model.SessionEvent {
	return model.SessionEvent{
		SessionID:       fmt.Sprintf("s-%s-%d", playerID, score),
		PlayerID:        playerID,
		Score:           score,
		SnakeLength:     score/2 + model.MinSnakeLength,
		DurationSeconds: 60,
		FoodEaten:       score / 10,
		SpeedBoostsUsed: 1,
		RecordedAt:      time.Now().UTC(),
	}
}

func TestApplySessionFirstRecord(t *testing.T) {
	store := newFakeStorage()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	agg := NewAggregator(store, WithClock(func() time.Time { return now }))

	got, err := agg.ApplySession(context.Background(), sessionEvent("p1", 10))
	if err != nil {
		t.Fatalf("ApplySession failed: %v", err)
	}
	if got.TotalGames != 1 || got.TotalScore != 10 || got.HighestScore != 10 {
		t.Fatalf("totals = %+v", got)
	}
	if got.AverageScore != 10 {
		t.Fatalf("average = %v, want 10", got.AverageScore)
	}
	if !got.LastUpdated.Equal(now) {
		t.Fatalf("last updated = %v, want %v", got.LastUpdated, now)
	}
	if stored := store.records["p1"]; stored != got {
		t.Fatalf("stored %+v differs from returned %+v", stored, got)
	}
}

func TestApplySessionFoldsSequence(t *testing.T) {
	store := newFakeStorage()
	agg := NewAggregator(store)
	ctx := context.Background()

	for _, score := range []int{10, 25, 15} {
		if _, err := agg.ApplySession(ctx, sessionEvent("p1", score)); err != nil {
			t.Fatalf("ApplySession(%d) failed: %v", score, err)
		}
	}

	got := store.records["p1"]
	if got.TotalGames != 3 || got.TotalScore != 50 {
		t.Fatalf("totals = games %d score %d, want 3 / 50", got.TotalGames, got.TotalScore)
	}
	if math.Abs(got.AverageScore-50.0/3.0) > 1e-9 {
		t.Fatalf("average = %v, want %v", got.AverageScore, 50.0/3.0)
	}
	if got.HighestScore != 25 {
		t.Fatalf("highest = %d, want 25", got.HighestScore)
	}
}

func TestApplySessionRetriesOnConflict(t *testing.T) {
	store := newFakeStorage()
	store.conflicts = 2
	agg := NewAggregator(store, WithRetryAttempts(5))

	if _, err := agg.ApplySession(context.Background(), sessionEvent("p1", 10)); err != nil {
		t.Fatalf("ApplySession failed: %v", err)
	}
	if store.putCalls != 3 {
		t.Fatalf("put calls = %d, want 3", store.putCalls)
	}
	if store.records["p1"].TotalGames != 1 {
		t.Fatalf("session applied %d times, want once", store.records["p1"].TotalGames)
	}
}

func TestApplySessionRetriesExhausted(t *testing.T) {
	store := newFakeStorage()
	store.conflicts = 100
	agg := NewAggregator(store, WithRetryAttempts(3))

	_, err := agg.ApplySession(context.Background(), sessionEvent("p1", 10))
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if store.putCalls != 3 {
		t.Fatalf("put calls = %d, want 3", store.putCalls)
	}
}

func TestApplySessionAfterLazyStatsRead(t *testing.T) {
	s, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	// A read before any session lazily creates the zero-valued row. The
	// versioned write that follows must land on that row, not fight it.
	if _, err := s.EnsureStats(ctx, "p1"); err != nil {
		t.Fatalf("EnsureStats failed: %v", err)
	}

	agg := NewAggregator(s)
	got, err := agg.ApplySession(ctx, sessionEvent("p1", 10))
	if err != nil {
		t.Fatalf("ApplySession failed: %v", err)
	}
	if got.TotalGames != 1 || got.TotalScore != 10 {
		t.Fatalf("totals = games %d score %d, want 1 / 10", got.TotalGames, got.TotalScore)
	}
}

func TestConcurrentAppliesCountEverySession(t *testing.T) {
	s, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	// A generous budget so every writer eventually wins its race.
	agg := NewAggregator(s, WithRetryAttempts(1000))
	ctx := context.Background()

	const (
		writers           = 4
		sessionsPerWriter = 10
	)

	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < sessionsPerWriter; i++ {
				if _, err := agg.ApplySession(ctx, sessionEvent("p1", 10)); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent apply failed: %v", err)
	}

	final, _, err := s.StatsForUpdate(ctx, "p1")
	if err != nil {
		t.Fatalf("StatsForUpdate failed: %v", err)
	}
	if want := writers * sessionsPerWriter; final.TotalGames != want {
		t.Fatalf("total games = %d, want %d", final.TotalGames, want)
	}
	if want := writers * sessionsPerWriter * 10; final.TotalScore != want {
		t.Fatalf("total score = %d, want %d", final.TotalScore, want)
	}
}
