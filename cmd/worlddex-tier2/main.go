package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worlddex/internal/modkit"
	"worlddex/internal/modkit/module"
	"worlddex/internal/platform/config"
	"worlddex/internal/platform/logger"
	"worlddex/internal/platform/store"

	tier2mod "worlddex/internal/services/tier2/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	root := config.New()
	dbCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	// Flags (same spirit as the api env)
	var (
		fConc     = flag.Int("concurrency", 4, "worker concurrency")
		fBatch    = flag.Int("batch", 4, "jobs leased per poll")
		fPoll     = flag.Duration("poll", 500*time.Millisecond, "queue poll interval")
		fLease    = flag.Duration("lease", 30*time.Second, "job lease ttl")
		fTimeout  = flag.Duration("job_timeout", 25*time.Second, "per job refinement timeout, kept below the lease")
		fChain    = flag.String("animal_chain", "", "comma-separated animal engines in fallback order")
		fOutcomes = flag.String("outcomes", "", "outcome sink: none or clickhouse")
		fID       = flag.String("worker_id", "", "lease owner id (default random)")
	)
	flag.Parse()

	// Export as env so module can also read via FromConfig
	mustSetEnv("TIER2_STORE", "pg")
	mustSetEnv("TIER2_WORKER_CONCURRENCY", fmt.Sprintf("%d", *fConc))
	mustSetEnv("TIER2_QUEUE_TAKE_BATCH", fmt.Sprintf("%d", *fBatch))
	mustSetEnv("TIER2_POLL", fPoll.String())
	mustSetEnv("TIER2_LEASE_TTL", fLease.String())
	mustSetEnv("TIER2_JOB_TIMEOUT", fTimeout.String())
	mustSetEnv("TIER2_ANIMAL_CHAIN", *fChain)
	mustSetEnv("TIER2_OUTCOMES", *fOutcomes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := store.Config{
		AppName: "worlddex-tier2",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbCfg.MustString("DBURL"),
			MaxConns:    int32(dbCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
			LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		},
	}
	if root.Prefix("TIER2_").MayString("OUTCOMES", "") == "clickhouse" {
		cfg.CH = store.CHConfig{Enabled: true, URL: chCfg.MustString("DBURL"), Tag: "tier2"}
	}

	st, err := store.Open(ctx, cfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	mod := tier2mod.New(deps, tier2mod.Options{Store: tier2mod.StorePG, WorkerID: *fID})
	module.Register(mod.Name(), mod.Ports())

	ports := module.MustPortsOf[tier2mod.Ports](mod)

	info := mod.Info()
	l.Info().
		Strs("modules", info.Modules).
		Strs("animal_chain", info.AnimalChain).
		Int("landmarks", info.Landmarks).
		Msg("tier2 worker starting")
	if err := ports.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("tier2 worker failed")
	}
}
