// Package stats folds recorded sessions into per-player running totals.
//
// Writes are optimistic: read the current record with its version, fold the
// session in, then write back conditioned on that version. A lost race is
// retried with a fresh read, bounded by the configured attempt budget.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slitherlab/slither/internal/adapters/storage/sqlitestore"
	"github.com/slitherlab/slither/internal/domain/model"
	"github.com/slitherlab/slither/pkg/logger"
	"github.com/slitherlab/slither/pkg/metrics"
)

const defaultRetryAttempts = 5

// Storage is the versioned statistics store the aggregator writes through.
type Storage interface {
	// StatsForUpdate returns the record with its version, or
	// sqlitestore.ErrNotFound when the player has none yet.
	StatsForUpdate(ctx context.Context, playerID string) (model.PlayerStatistics, int64, error)
	// PutStatsVersioned writes st if the stored version still matches,
	// failing with sqlitestore.ErrConflict otherwise.
	PutStatsVersioned(ctx context.Context, st model.PlayerStatistics, expectedVersion int64) error
}

// Aggregator applies session events to player statistics.
type Aggregator struct {
	store         Storage
	log           logger.Logger
	retryAttempts int
	now           func() time.Time
}

// NewAggregator constructs an aggregator with configuration options.
func NewAggregator(store Storage, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:         store,
		log:           logger.Get().Named("stats"),
		retryAttempts: defaultRetryAttempts,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ApplySession folds one session into the player's totals and returns the
// updated record. Absence of a prior record is the zero-valued starting
// state, not an error. Exactly one successful write happens per call; every
// attempt that loses the version race is retried up to the budget, after
// which ErrRetriesExhausted is returned.
func (a *Aggregator) ApplySession(ctx context.Context, ev model.SessionEvent) (model.PlayerStatistics, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStatsUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	for attempt := 0; attempt < a.retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return model.PlayerStatistics{}, fmt.Errorf("apply session %s: %w", ev.SessionID, err)
		}

		current, version, err := a.store.StatsForUpdate(ctx, ev.PlayerID)
		if errors.Is(err, sqlitestore.ErrNotFound) {
			current = model.NewPlayerStatistics(ev.PlayerID)
			version = 0
		} else if err != nil {
			return model.PlayerStatistics{}, fmt.Errorf("apply session %s: %w", ev.SessionID, err)
		}

		next := current.Apply(ev, a.now())

		err = a.store.PutStatsVersioned(ctx, next, version)
		if errors.Is(err, sqlitestore.ErrConflict) {
			metrics.RecordStatsConflict()
			a.log.Debug(ctx, "statistics write lost version race, retrying",
				logger.String("player_id", ev.PlayerID),
				logger.Int("attempt", attempt+1),
			)
			continue
		}
		if err != nil {
			return model.PlayerStatistics{}, fmt.Errorf("apply session %s: %w", ev.SessionID, err)
		}

		metrics.RecordStatsUpdate()
		return next, nil
	}

	metrics.RecordStatsRetriesExhausted()
	return model.PlayerStatistics{}, fmt.Errorf("apply session %s after %d attempts: %w",
		ev.SessionID, a.retryAttempts, ErrRetriesExhausted)
}
