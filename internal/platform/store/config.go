package store

import "worlddex/internal/platform/logger"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures the postgres job store connection
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int
}

// CHConfig configures the clickhouse outcome sink connection
type CHConfig struct {
	Enabled bool
	URL     string
	Tag     string // reported as client info
}

// Option mutates Store during Open
type Option func(*Store)

// WithLogger sets the logger used for sql tracing
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.Log = log }
}
