package config

import "errors"

var (
	// ErrInvalidConfig marks configuration that parsed but fails validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrLoadConfig marks a failure reading or decoding a configuration source.
	ErrLoadConfig = errors.New("load config failed")
)
