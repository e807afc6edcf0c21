// Package sink records terminal Tier2 jobs for analytics
package sink

import (
	"context"
	"strings"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/store"
	dom "worlddex/internal/services/tier2/domain"
)

// Table is the ClickHouse outcomes table
const Table = "tier2_outcomes"

// DDL creates Table when missing
const DDL = `
CREATE TABLE IF NOT EXISTS tier2_outcomes (
	job_id      String,
	module      LowCardinality(String),
	state       LowCardinality(String),
	provider    LowCardinality(String),
	label       String,
	confidence  Float64,
	error       String,
	duration_ms UInt32,
	finished_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (finished_at, module)
TTL toDateTime(finished_at) + INTERVAL 90 DAY`

// Noop drops outcomes
type Noop struct{}

// Record does nothing
func (Noop) Record(context.Context, dom.Outcome) error { return nil }

// ClickHouse writes one row per outcome through the store seam
type ClickHouse struct {
	ch store.Clickhouse
}

// NewClickHouse returns a sink over ch
func NewClickHouse(ch store.Clickhouse) *ClickHouse { return &ClickHouse{ch: ch} }

// Record inserts o, errors are Unavailable so callers can log and move on
func (s *ClickHouse) Record(ctx context.Context, o dom.Outcome) error {
	if s == nil || s.ch == nil {
		return perr.Unavailablef("clickhouse outcome sink not configured")
	}
	if err := s.ch.Insert(ctx, Table, [][]any{row(o)}); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "record tier2 outcome")
	}
	return nil
}

// Ensure creates the outcomes table
func Ensure(ctx context.Context, ch store.Clickhouse) error {
	if err := ch.Exec(ctx, strings.TrimSpace(DDL)); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "create tier2_outcomes")
	}
	return nil
}

// row lists values in table column order
func row(o dom.Outcome) []any {
	ms := o.Duration.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > int64(^uint32(0)) {
		ms = int64(^uint32(0))
	}
	return []any{
		o.JobID,
		o.Module,
		string(o.State),
		o.Provider,
		o.Label,
		o.Confidence,
		o.Error,
		uint32(ms),
		o.FinishedAt.UTC(),
	}
}
