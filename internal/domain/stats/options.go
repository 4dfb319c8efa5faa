package stats

import (
	"time"

	"github.com/slitherlab/slither/pkg/logger"
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used by the aggregator.
func WithLogger(log logger.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithRetryAttempts bounds how many times a lost version race is retried.
func WithRetryAttempts(attempts int) Option {
	return func(a *Aggregator) {
		if attempts > 0 {
			a.retryAttempts = attempts
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}
