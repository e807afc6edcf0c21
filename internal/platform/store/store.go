// Package store opens the optional postgres and clickhouse backends
package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"worlddex/internal/platform/logger"
	"worlddex/internal/platform/store/ch"
	"worlddex/internal/platform/store/pg"
)

// Store holds whichever backends were enabled, the rest stay nil
type Store struct {
	Log logger.Logger

	PG TxRunner
	CH Clickhouse
}

// Row is a single row result
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports what a statement touched
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the sql surface repos use
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn inside a transaction, rolled back when fn errors
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar seam, Insert takes [][]any in column order
type Clickhouse interface {
	Insert(ctx context.Context, table string, data any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Close() error
}

// Open connects the backends cfg enables
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}

	if cfg.PG.Enabled {
		pool, err := pg.Open(ctx, pg.Config{URL: cfg.PG.URL, MaxConns: cfg.PG.MaxConns})
		if err != nil {
			return nil, err
		}
		var tr pg.QueryTracer
		if cfg.PG.LogSQL {
			tr = pg.Tracer(s.Log)
		}
		s.PG = newPostgres(pool, tr, cfg.PG.SlowQueryMs)
	}

	if cfg.CH.Enabled {
		c, err := ch.Open(ctx, ch.Config{URL: cfg.CH.URL, Role: cfg.AppName, Tag: cfg.CH.Tag})
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = clickhouse{c}
	}
	return s, nil
}

// Close releases every open backend
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// clickhouse narrows *ch.CH to the seam
type clickhouse struct{ c *ch.CH }

func (a clickhouse) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return errors.New("store: clickhouse insert wants [][]any")
	}
	return a.c.Insert(ctx, table, rows)
}

func (a clickhouse) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

func (a clickhouse) Ping(ctx context.Context) error { return a.c.Ping(ctx) }
func (a clickhouse) Close() error                   { return a.c.Close() }
