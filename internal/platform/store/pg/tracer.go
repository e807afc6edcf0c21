package pg

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"worlddex/internal/platform/logger"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed float64 // ms
	Slow    bool
	Err     error
}

// QueryTracer receives every statement the store runs
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs statements through root, forced to debug so SERVICE_PGSQL_LOG_SQL
// works regardless of the process level
func Tracer(root logger.Logger) QueryTracer {
	return logTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (t logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	e := t.log.Debug()
	if ev.Slow || ev.Err != nil {
		e = t.log.Warn()
	}
	e.Float64("elapsed_ms", ev.Elapsed).
		Bool("slow", ev.Slow).
		Str("sql", squash(ev.SQL)).
		Int("args", len(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// squash folds whitespace runs so multi line statements log on one line
func squash(sql string) string { return strings.Join(strings.Fields(sql), " ") }
