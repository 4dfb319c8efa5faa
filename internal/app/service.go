// Package service provides the core business service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/slitherlab/slither/internal/adapters/mq/queue"
	workerpool "github.com/slitherlab/slither/internal/adapters/mq/worker"
	"github.com/slitherlab/slither/internal/adapters/repository"
	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/dedupe"
	"github.com/slitherlab/slither/internal/domain/model"
	"github.com/slitherlab/slither/internal/domain/stats"
	"github.com/slitherlab/slither/pkg/logger"
	"github.com/slitherlab/slither/pkg/metrics"
)

// boardWriter applies a leaderboard candidate to the durable table first and
// mirrors accepted entries into the in-memory ranked index. The durable
// upsert decides; the index never diverges from it on the accept path.
type boardWriter struct {
	store *sqlitestore.Store
	index *repository.TreapIndex
}

func (b *boardWriter) UpdateIfHigher(ctx context.Context, e model.LeaderboardEntry) (bool, error) {
	changed, err := b.store.UpsertEntryIfHigher(ctx, e)
	if err != nil {
		return false, fmt.Errorf("durable leaderboard upsert: %w", err)
	}
	if !changed {
		return false, nil
	}
	if _, err := b.index.UpdateIfHigher(ctx, e); err != nil {
		return true, fmt.Errorf("ranked index update: %w", err)
	}
	return true, nil
}

// Service implements the API dependencies for the statistics and
// leaderboard engine.
type Service struct {
	mu sync.RWMutex

	store      *sqlitestore.Store
	index      *repository.TreapIndex
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	aggregator *stats.Aggregator
	workerPool *workerpool.Pool

	dbPath             string
	workerCount        int
	queueSize          int
	dedupeSize         int
	statsRetryAttempts int
	exportSessionLimit int

	started bool

	// runCancel stops the background goroutines. The pipeline's lifetime is
	// owned by the service, not by the context Start happened to be called
	// with.
	runCancel context.CancelFunc

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:             "slither.db",
		workerCount:        runtime.NumCPU() * 4,
		queueSize:          100_000,
		dedupeSize:         500_000,
		statsRetryAttempts: 5,
		exportSessionLimit: 50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage, rebuilds the ranked index and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting statistics service...")

	store, err := sqlitestore.Open(s.dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	s.store = store

	runCtx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel

	s.index = repository.NewTreapIndex(runCtx)
	entries, err := store.AllEntries(ctx)
	if err != nil {
		_ = s.index.Close()
		_ = store.Close()
		cancel()
		return fmt.Errorf("load leaderboard entries: %w", err)
	}
	if err := s.index.Seed(ctx, entries); err != nil {
		_ = s.index.Close()
		_ = store.Close()
		cancel()
		return fmt.Errorf("seed ranked index: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	s.aggregator = stats.NewAggregator(store,
		stats.WithRetryAttempts(s.statsRetryAttempts),
		stats.WithLogger(s.logger.Named("stats")),
	)

	board := &boardWriter{store: store, index: s.index}
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.aggregator, board, store)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "statistics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("leaderboard_entries", len(entries)),
	)
	return nil
}

// Stop drains the queue and releases storage.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping statistics service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}
	if s.index != nil {
		_ = s.index.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.runCancel != nil {
		s.runCancel()
	}

	s.started = false
	s.logger.Info(ctx, "statistics service stopped")
}

// SeenAndRecord atomically checks whether a session id was seen and records
// it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord forgets a session id so the submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of remembered session ids.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// RecordSession durably records one finished session and queues it for
// aggregation. Exactly one session record exists per successful call. When
// the aggregation queue is full the recording is rolled back and
// queue.ErrFull returned, so a retry cannot double-count.
func (s *Service) RecordSession(ctx context.Context, in model.SessionInput) (model.SessionRecord, error) {
	if err := in.Validate(); err != nil {
		return model.SessionRecord{}, err
	}

	id := in.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	rec := model.SessionRecord{
		ID:              id,
		PlayerID:        in.PlayerID,
		Score:           in.Score,
		SnakeLength:     in.SnakeLength,
		DurationSeconds: in.DurationSeconds,
		FoodEaten:       in.FoodEaten,
		SpeedBoostsUsed: in.SpeedBoostsUsed,
		EndReason:       in.EndReason,
		RecordedAt:      time.Now().UTC(),
	}

	if err := s.store.InsertSession(ctx, rec); err != nil {
		return model.SessionRecord{}, fmt.Errorf("record session: %w", err)
	}

	// A recorded session counts as activity. Best effort; an unregistered
	// player simply has no row to touch.
	if err := s.store.TouchPlayer(ctx, rec.PlayerID, rec.RecordedAt); err != nil {
		s.logger.Warn(ctx, "failed to refresh player activity",
			logger.String("player_id", rec.PlayerID),
			logger.Error(err),
		)
	}

	if !s.eventQueue.Enqueue(ctx, rec.Event()) {
		// Compensate so the recording contract stays exactly-once.
		if delErr := s.store.DeleteSession(ctx, rec.ID); delErr != nil {
			s.logger.Error(ctx, "failed to roll back session after full queue",
				logger.String("session_id", rec.ID),
				logger.Error(delErr),
			)
		}
		return model.SessionRecord{}, fmt.Errorf("queue aggregation for session %s: %w", rec.ID, eventqueue.ErrFull)
	}
	return rec, nil
}

// RecentSessions lists a player's sessions, most recent first.
func (s *Service) RecentSessions(ctx context.Context, playerID string, limit int) ([]model.SessionRecord, error) {
	return s.store.SessionsByPlayer(ctx, playerID, limit)
}

// CreatePlayer registers a new profile.
func (s *Service) CreatePlayer(ctx context.Context, in model.PlayerInput) (model.Player, error) {
	if err := in.Validate(); err != nil {
		return model.Player{}, err
	}
	now := time.Now().UTC()
	p := model.Player{
		ID:         uuid.NewString(),
		Username:   in.Username,
		Email:      in.Email,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.store.CreatePlayer(ctx, p); err != nil {
		return model.Player{}, err
	}
	return p, nil
}

// Player fetches one profile.
func (s *Service) Player(ctx context.Context, id string) (model.Player, error) {
	return s.store.PlayerByID(ctx, id)
}

// PlayerByUsername fetches one profile by its unique username.
func (s *Service) PlayerByUsername(ctx context.Context, username string) (model.Player, error) {
	return s.store.PlayerByUsername(ctx, username)
}

// UpdatePlayer applies a profile update.
func (s *Service) UpdatePlayer(ctx context.Context, id string, upd model.PlayerUpdate) (model.Player, error) {
	if err := upd.Validate(); err != nil {
		return model.Player{}, err
	}
	return s.store.UpdatePlayer(ctx, id, upd)
}

// Top returns the top n leaderboard entries with positional ranks.
func (s *Service) Top(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.index.Top(ctx, n)
}

// RankOf returns a player's competition rank.
func (s *Service) RankOf(ctx context.Context, playerID string) (repository.Entry, error) {
	return s.index.RankOf(ctx, playerID)
}

// Statistics returns a player's totals, creating the zero-valued record when
// the player has none yet.
func (s *Service) Statistics(ctx context.Context, playerID string) (model.PlayerStatistics, error) {
	return s.store.EnsureStats(ctx, playerID)
}

// SaveGameState snapshots an in-progress game, superseding any previous
// snapshot for the player.
func (s *Service) SaveGameState(ctx context.Context, in model.GameStateInput) (model.GameState, error) {
	if err := in.Validate(); err != nil {
		return model.GameState{}, err
	}
	speed := in.GameSpeed
	if speed <= 0 {
		speed = model.DefaultGameSpeed
	}
	gs := model.GameState{
		ID:             uuid.NewString(),
		PlayerID:       in.PlayerID,
		Score:          in.Score,
		HighScore:      in.HighScore,
		SnakePositions: in.SnakePositions,
		FoodPosition:   in.FoodPosition,
		Direction:      in.Direction,
		GameSpeed:      speed,
		SavedAt:        time.Now().UTC(),
		IsActive:       true,
	}
	if err := s.store.SaveGameState(ctx, gs); err != nil {
		return model.GameState{}, err
	}
	return gs, nil
}

// LoadGameState returns the player's active saved game.
func (s *Service) LoadGameState(ctx context.Context, playerID string) (model.GameState, error) {
	return s.store.ActiveGameState(ctx, playerID)
}

// DeleteGameState discards the player's saved games, returning how many.
func (s *Service) DeleteGameState(ctx context.Context, playerID string) (int, error) {
	return s.store.DeactivateGameStates(ctx, playerID)
}

// ExportPlayer bundles everything belonging to one player into a versioned
// envelope.
func (s *Service) ExportPlayer(ctx context.Context, playerID string) (model.Export, error) {
	player, err := s.store.PlayerByID(ctx, playerID)
	if err != nil {
		return model.Export{}, err
	}
	statistics, err := s.store.EnsureStats(ctx, playerID)
	if err != nil {
		return model.Export{}, err
	}
	sessions, err := s.store.SessionsByPlayer(ctx, playerID, s.exportSessionLimit)
	if err != nil {
		return model.Export{}, err
	}

	exp := model.Export{
		PlayerID:        playerID,
		Username:        player.Username,
		Statistics:      statistics,
		RecentSessions:  sessions,
		ExportTimestamp: time.Now().UTC(),
		Version:         model.ExportVersion,
	}
	gs, err := s.store.ActiveGameState(ctx, playerID)
	switch {
	case err == nil:
		exp.SavedGameState = &gs
	case errors.Is(err, sqlitestore.ErrNotFound):
		// No active save; the envelope simply omits it.
	default:
		return model.Export{}, err
	}
	return exp, nil
}

// ImportPlayer validates an export envelope against its schema and archives
// it. Payloads naming a different player are rejected.
func (s *Service) ImportPlayer(ctx context.Context, playerID string, raw []byte) (model.ImportRecord, error) {
	payload, err := model.ParseImport(raw)
	if err != nil {
		return model.ImportRecord{}, err
	}
	if payload.PlayerID != playerID {
		return model.ImportRecord{}, fmt.Errorf("%w: payload player %q does not match %q",
			model.ErrInvalidImport, payload.PlayerID, playerID)
	}

	rec := model.ImportRecord{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		Payload:    payload,
		ImportedAt: time.Now().UTC(),
	}
	if err := s.store.ArchiveImport(ctx, rec); err != nil {
		return model.ImportRecord{}, err
	}
	return rec, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]any{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
	}
	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		players := s.index.Count(ctx)

		out["queue_length"] = queueLen
		out["leaderboard_players"] = players

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateIndexPlayers(players)
	}
	return out
}
