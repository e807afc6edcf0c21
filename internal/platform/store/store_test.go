package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"worlddex/internal/platform/store/pg"
)

func TestOpen_NothingEnabled(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{AppName: "worlddex-api"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.CH != nil {
		t.Fatalf("disabled backends should stay nil, got PG=%T CH=%T", s.PG, s.CH)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close on empty store: %v", err)
	}
}

func TestOpen_ClickhouseIsLazy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := Open(ctx, Config{CH: CHConfig{Enabled: true, URL: "clickhouse://127.0.0.1:9000/default", Tag: "tier2"}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.CH == nil || s.PG != nil {
		t.Fatalf("want only CH, got PG=%T CH=%T", s.PG, s.CH)
	}
	if err := s.CH.Insert(ctx, "tier2_outcomes", []any{1}); err == nil {
		t.Fatalf("expected shape error for non [][]any insert")
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_BadPostgresURL(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), Config{
		PG: PGConfig{Enabled: true, URL: "://bad"},
		CH: CHConfig{Enabled: true, URL: "clickhouse://127.0.0.1:9000/default"},
	})
	if err == nil || s != nil {
		t.Fatalf("want error and nil store, got %v %#v", err, s)
	}
}

type recTracer struct{ evs []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.evs = append(r.evs, ev) }

type stubRow struct{ err error }

func (s stubRow) Scan(...any) error { return s.err }

func TestScanHook_ReportsScanError(t *testing.T) {
	t.Parallel()

	boom := errors.New("no rows")
	var got error
	row := scanHook{row: stubRow{err: boom}, done: func(err error) { got = err }}

	if err := row.Scan(); !errors.Is(err, boom) {
		t.Fatalf("Scan err = %v", err)
	}
	if !errors.Is(got, boom) {
		t.Fatalf("hook saw %v", got)
	}
}

func TestTraced_FlagsSlowStatements(t *testing.T) {
	t.Parallel()

	tr := &recTracer{}
	q := traced{tracer: tr, slow: 10 * time.Millisecond}
	q.report(context.Background(), "UPDATE tier2_jobs SET progress = $1", []any{50}, time.Now().Add(-time.Second), nil)
	q.report(context.Background(), "SELECT 1", nil, time.Now(), nil)

	if len(tr.evs) != 2 {
		t.Fatalf("events = %d", len(tr.evs))
	}
	if !tr.evs[0].Slow || tr.evs[1].Slow {
		t.Fatalf("slow flags = %v %v", tr.evs[0].Slow, tr.evs[1].Slow)
	}
	if tr.evs[0].Elapsed < 1000 {
		t.Fatalf("elapsed = %vms", tr.evs[0].Elapsed)
	}
}

func TestTraced_NilTracerIsQuiet(t *testing.T) {
	t.Parallel()

	traced{}.report(context.Background(), "SELECT 1", nil, time.Now(), nil)
}

var _ CommandTag = pgconn.CommandTag{}
