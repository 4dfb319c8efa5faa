package service

import (
	"github.com/slitherlab/slither/pkg/logger"
)

// Option configures the service.
type Option func(*Service)

// WithDBPath sets the SQLite database path. Use ":memory:" for an
// ephemeral store.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithWorkerCount sets the number of aggregation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the aggregation queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of remembered session ids.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStatsRetryAttempts sets how often a conflicting statistics write is
// retried before giving up.
func WithStatsRetryAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.statsRetryAttempts = attempts
		}
	}
}

// WithExportSessionLimit caps how many recent sessions an export carries.
func WithExportSessionLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.exportSessionLimit = limit
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}
