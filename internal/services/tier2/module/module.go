// Package module wires the Tier2 worker service and exposes its ports
package module

import (
	"context"
	"time"

	"worlddex/internal/adapters/plantid"
	"worlddex/internal/adapters/vision"
	"worlddex/internal/core/landmarks"
	"worlddex/internal/core/routing"
	"worlddex/internal/modkit"
	"worlddex/internal/modkit/httpkit"
	"worlddex/internal/platform/logger"
	dom "worlddex/internal/services/tier2/domain"
	"worlddex/internal/services/tier2/refine"
	"worlddex/internal/services/tier2/repo"
	"worlddex/internal/services/tier2/service"
	"worlddex/internal/services/tier2/sink"
)

// Module defines the tier2 worker module
type Module struct {
	deps  modkit.Deps
	opts  Options
	svc   *service.Svc
	ports Ports
	info  Info
}

// Info describes the wired refinement side for operators
type Info struct {
	Store          string
	Modules        []string
	AnimalChain    []string
	LandmarkEngine string
	Landmarks      int
	InProcess      bool
}

// New builds the store, the providers and the refinement registry from config and overrides
// broken wiring panics at boot, the same way a missing required env does
func New(deps modkit.Deps, overrides Options) *Module {
	opts := FromConfig(deps.Cfg).merge(overrides)
	log := logger.Named("tier2")

	ret := dom.Retention{Keep: opts.Retain, TTL: opts.RetainTTL}
	var store dom.JobStore
	switch opts.Store {
	case StorePG:
		if deps.PG == nil {
			log.Panic().Msg("TIER2_STORE=pg needs SERVICE_PGSQL_ENABLED")
		}
		if opts.Migrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := repo.Migrate(ctx, deps.PG)
			cancel()
			if err != nil {
				log.Panic().Err(err).Msg("tier2 migrate failed")
			}
		}
		store = repo.NewPostgres(deps.PG, ret)
	default:
		store = repo.NewMemory(ret)
	}

	var out dom.OutcomeSink = sink.Noop{}
	if opts.Outcomes == OutcomesClickHouse {
		if deps.CH == nil {
			log.Panic().Msg("TIER2_OUTCOMES=clickhouse needs SERVICE_CLICKHOUSE_ENABLED")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sink.Ensure(ctx, deps.CH); err != nil {
			log.Warn().Err(err).Msg("tier2_outcomes table not ensured")
		}
		cancel()
		out = sink.NewClickHouse(deps.CH)
	}

	handlers, err := Handlers(opts)
	if err != nil {
		log.Panic().Err(err).Msg("tier2 refinement wiring failed")
	}

	svc := service.New(store, handlers, out, service.Config{
		WorkerID:    opts.WorkerID,
		Concurrency: opts.Concurrency,
		TakeBatch:   opts.TakeBatch,
		Poll:        opts.Poll,
		LeaseTTL:    opts.LeaseTTL,
		JobTimeout:  opts.JobTimeout,
		PruneEvery:  opts.PruneEvery,
		Retention:   ret,
	})

	m := &Module{deps: deps, opts: opts, svc: svc}
	m.info = Info{
		Store:          opts.Store,
		AnimalChain:    opts.AnimalChain,
		LandmarkEngine: opts.LandmarkEngine,
		InProcess:      opts.InProcess || opts.Store != StorePG,
	}
	m.info.Modules = handlers.Modules()
	if lm, ok := handlers[routing.ModuleLandmark].(*refine.Landmark); ok && lm.Registry != nil {
		m.info.Landmarks = lm.Registry.Len()
	}
	m.ports = Ports{
		Worker:   svc,
		Enqueuer: svc,
		Jobs:     svc,
	}
	return m
}

// Handlers builds the refinement registry for opts
func Handlers(opts Options) (refine.Registry, error) {
	engines := vision.NewEngines(
		vision.NewGemini(vision.GeminiOptions{APIKey: opts.GeminiKey, Model: opts.GeminiModel, Endpoint: opts.GeminiEndpoint}),
		vision.NewOpenAI(vision.OpenAIOptions{APIKey: opts.OpenAIKey, Model: opts.OpenAIModel, BaseURL: opts.OpenAIBaseURL}),
	)
	chain, err := engines.Chain(opts.AnimalChain)
	if err != nil {
		return nil, err
	}
	lmEngine, err := engines.Get(opts.LandmarkEngine)
	if err != nil {
		return nil, err
	}

	reg, err := landmarks.Default()
	if opts.LandmarksFile != "" {
		reg, err = landmarks.LoadFile(opts.LandmarksFile)
	}
	if err != nil {
		return nil, err
	}

	rc := routing.DefaultConfig()
	if len(opts.PlantCategories) > 0 {
		rc.PlantCategories = opts.PlantCategories
	}

	plants := plantid.NewClient(plantid.Options{
		APIKey:  opts.PlantIDKey,
		BaseURL: opts.PlantIDBaseURL,
		Timeout: opts.PlantIDTimeout,
	})

	return refine.Registry{
		routing.ModuleSpecies: &refine.Species{
			Plants:  &refine.Organism{Provider: plants},
			Animals: &refine.Animal{Chain: chain},
			Routing: rc,
		},
		routing.ModuleLandmark: &refine.Landmark{
			Registry: reg,
			Provider: lmEngine,
			RadiusM:  opts.LandmarkRadius,
		},
	}, nil
}

// Info reports the wired store and refinement modules
func (m *Module) Info() Info { return m.info }

// Options returns the effective options
func (m *Module) Options() Options { return m.opts }

// Ports returns the module ports (Worker, Enqueuer, Jobs)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "tier2" }

// MountRoutes is a no op, tier2 has no routes of its own
func (m *Module) MountRoutes(_ httpkit.Router) {}
