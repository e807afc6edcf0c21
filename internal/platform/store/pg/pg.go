// Package pg opens the postgres pool behind the job store
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32

	// Attempts bounds the boot ping loop, zero means 20
	Attempts int
}

// Open builds a pool and blocks until postgres answers a ping
// the loop backs off from 150ms up to 2s between attempts
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pg: parse url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: pool: %w", err)
	}

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 20
	}
	wait := 150 * time.Millisecond
	var last error
	for range attempts {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		last = pool.Ping(pctx)
		cancel()
		if last == nil {
			return pool, nil
		}

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, 2*time.Second)
	}
	pool.Close()
	return nil, fmt.Errorf("pg: no answer after %d pings: %w", attempts, last)
}
