// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file path. ":memory:" is accepted for tests.
	DBPath string `koanf:"db_path"`

	// QueueSize bounds the in-memory session event queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of aggregation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// StatsRetryAttempts bounds the optimistic-concurrency retry loop for
	// statistics updates before a conflict is surfaced.
	StatsRetryAttempts int `koanf:"stats_retry_attempts"`

	// SessionHistoryLimit is the default page size for recent session listings.
	SessionHistoryLimit int `koanf:"session_history_limit"`

	// ExportSessionLimit caps the number of sessions included in an export.
	ExportSessionLimit int `koanf:"export_session_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		DBPath:              "slither.db",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 50,
		StatsRetryAttempts:  5,
		SessionHistoryLimit: 10,
		ExportSessionLimit:  50,
	}
}
