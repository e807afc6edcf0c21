package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"worlddex/internal/platform/store/pg"
)

// pgxQuerier is what *pgxpool.Pool and pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced runs statements on db and reports each one to tracer
type traced struct {
	db     pgxQuerier
	tracer pg.QueryTracer
	slow   time.Duration
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	tag, err := t.db.Exec(ctx, sql, args...)
	t.report(ctx, sql, args, start, err)
	return tag, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.db.Query(ctx, sql, args...)
	t.report(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// QueryRow reports once Scan has run, a pgx row does no work before that
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return scanHook{row: t.db.QueryRow(ctx, sql, args...), done: func(err error) {
		t.report(ctx, sql, args, start, err)
	}}
}

func (t traced) report(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	took := time.Since(start)
	t.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:     sql,
		Args:    args,
		Elapsed: float64(took.Microseconds()) / 1000,
		Slow:    t.slow > 0 && took >= t.slow,
		Err:     err,
	})
}

type scanHook struct {
	row  pgx.Row
	done func(error)
}

func (h scanHook) Scan(dest ...any) error {
	err := h.row.Scan(dest...)
	h.done(err)
	return err
}

// postgres is the pool backed TxRunner
type postgres struct {
	traced
	pool *pgxpool.Pool
}

func newPostgres(pool *pgxpool.Pool, tr pg.QueryTracer, slowMs int) *postgres {
	return &postgres{
		traced: traced{db: pool, tracer: tr, slow: time.Duration(slowMs) * time.Millisecond},
		pool:   pool,
	}
}

func (p *postgres) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(traced{db: tx, tracer: p.tracer, slow: p.slow})
	})
}

func (p *postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *postgres) Close() error {
	p.pool.Close()
	return nil
}
