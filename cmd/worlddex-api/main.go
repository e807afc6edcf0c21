// @title         WorldDex API
// @version       0.1.0
// @description   Two tier photo identification: immediate classification plus queued refinement streamed over SSE
// @BasePath      /api/v1

package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"worlddex/internal/platform/config"
	"worlddex/internal/platform/logger"
	phttp "worlddex/internal/platform/net/http"
	"worlddex/internal/platform/store"

	"worlddex/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	t2Cfg := root.Prefix("TIER2_")
	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the pg job store and the clickhouse outcome sink pull their backends in
	pgOn := pgCfg.MayBool("ENABLED", strings.EqualFold(t2Cfg.MayString("STORE", ""), "pg"))
	chOn := chCfg.MayBool("ENABLED", strings.EqualFold(t2Cfg.MayString("OUTCOMES", ""), "clickhouse"))

	cfg := store.Config{AppName: "worlddex-api"}
	if pgOn {
		cfg.PG = store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		}
	}
	if chOn {
		cfg.CH = store.CHConfig{
			Enabled: true,
			URL:     chCfg.MustString("DBURL"),
			Tag:     "api",
		}
	}

	// open the platform store (postgres + CH adapter), both optional
	st, err := store.Open(ctx, cfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	worker := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			DocsSuffix:     apiCfg.MayString("DOCS_TITLE_SUFFIX", ""),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// the memory job store is process local, so its worker lives here
	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error().Err(err).Msg("tier2 worker stopped")
			}
		}()
	}

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
