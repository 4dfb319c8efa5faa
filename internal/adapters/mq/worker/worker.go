// Package worker drains the session queue and applies aggregation updates.
//
// Each event triggers two independent updates: the player's statistics and
// the leaderboard. A failure in one never blocks the other; the session row
// itself is already durable by the time an event reaches a worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
	"github.com/slitherlab/slither/pkg/logger"
	"github.com/slitherlab/slither/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = model.SessionEvent

// Aggregator folds a session into the player's statistics.
type Aggregator interface {
	ApplySession(ctx context.Context, ev model.SessionEvent) (model.PlayerStatistics, error)
}

// Board records a new personal best when the score improves on the stored one.
type Board interface {
	UpdateIfHigher(ctx context.Context, e model.LeaderboardEntry) (bool, error)
}

// Directory resolves the username snapshotted onto leaderboard entries.
type Directory interface {
	Username(ctx context.Context, playerID string) (string, error)
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes session events until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing session events.
type InMemoryWorker struct {
	queue      Queue
	aggregator Aggregator
	board      Board
	directory  Directory
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(queue Queue, aggregator Aggregator, board Board, directory Directory, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		aggregator: aggregator,
		board:      board,
		directory:  directory,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, ev); err != nil {
				w.logger.Error(ctx, "error processing session event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent applies one session to statistics and to the leaderboard.
// The two updates are independent; both are attempted and their failures
// joined.
func (w *InMemoryWorker) processEvent(ctx context.Context, ev Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var statsErr error
	if _, err := w.aggregator.ApplySession(ctx, ev); err != nil {
		metrics.RecordAggregationError()
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "statistics update failed",
			logger.String("session_id", ev.SessionID),
			logger.String("player_id", ev.PlayerID),
			logger.Error(err),
		)
		statsErr = fmt.Errorf("statistics update for session %s: %w", ev.SessionID, err)
	}

	boardErr := w.updateBoard(ctx, ev)

	return errors.Join(statsErr, boardErr)
}

func (w *InMemoryWorker) updateBoard(ctx context.Context, ev Event) error {
	username, err := w.directory.Username(ctx, ev.PlayerID)
	if errors.Is(err, sqlitestore.ErrNotFound) {
		// Session for an unregistered player still counts toward statistics
		// but never appears on the board.
		metrics.RecordLeaderboardSkipped()
		w.logger.Debug(ctx, "skipping leaderboard update for unknown player",
			logger.String("player_id", ev.PlayerID),
		)
		return nil
	}
	if err != nil {
		metrics.RecordLeaderboardError()
		metrics.RecordWorkerError()
		return fmt.Errorf("resolve username for %s: %w", ev.PlayerID, err)
	}

	updated, err := w.board.UpdateIfHigher(ctx, model.LeaderboardEntry{
		PlayerID:    ev.PlayerID,
		Username:    username,
		Score:       ev.Score,
		SnakeLength: ev.SnakeLength,
		AchievedAt:  ev.RecordedAt,
	})
	if err != nil {
		metrics.RecordLeaderboardError()
		metrics.RecordWorkerError()
		return fmt.Errorf("leaderboard update for session %s: %w", ev.SessionID, err)
	}
	if updated {
		metrics.RecordLeaderboardUpdate()
	} else {
		metrics.RecordLeaderboardSkipped()
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one falls back
// to a multiple of the CPU count.
func NewPool(workerCount int, queue Queue, aggregator Aggregator, board Board, directory Directory) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(
			queue, aggregator, board, directory,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
