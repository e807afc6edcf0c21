// Package api provides the HTTP API for the application
package api

import (
	"worlddex/internal/core/version"
	"worlddex/internal/platform/config"
	"worlddex/internal/platform/logger"
	phttp "worlddex/internal/platform/net/http"
	"worlddex/internal/platform/store"

	"worlddex/internal/modkit"
	"worlddex/internal/modkit/httpkit"
	"worlddex/internal/modkit/module"
	"worlddex/internal/modkit/swaggerkit"

	"worlddex/internal/services/api/docs"
	identifymod "worlddex/internal/services/api/identify/module"
	metahttp "worlddex/internal/services/api/meta/http"
	metamod "worlddex/internal/services/api/meta/module"

	// Tier2 worker module (owns the Enqueuer and Jobs ports)
	t2dom "worlddex/internal/services/tier2/domain"
	tier2mod "worlddex/internal/services/tier2/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf // root config, modules apply their own prefixes
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	DocsSuffix     string // appended to the served title, e.g. "(staging)"
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
// it returns the tier2 worker when this process has to run it, nil otherwise
func Mount(r phttp.Router, opt Options) t2dom.WorkerPort {
	// shared deps for modules
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	// Construct the tier2 module first and extract its ports
	tier2 := tier2mod.New(deps, tier2mod.Options{})
	tp := module.MustPortsOf[tier2mod.Ports](tier2)

	// Inject them into the identify API module
	identify := identifymod.New(
		deps,
		modkit.WithPorts(identifymod.Ports{
			Enqueuer: tp.Enqueuer,
			Jobs:     tp.Jobs,
		}),
	)
	ii := module.MustPortsOf[identifymod.Exposed](identify).Info
	ti := tier2.Info()

	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{
		Pipeline: func() metahttp.PipelineResponse {
			return metahttp.PipelineResponse{
				Tier1Engine: ii.Tier1Engine,
				BannedTerms: ii.BannedTerms,
				SafePhrases: ii.SafePhrases,
				Collections: map[string]string{
					"organisms": ii.Organisms,
					"landmarks": ii.Landmarks,
				},
				Tier2Modules:    ti.Modules,
				AnimalChain:     ti.AnimalChain,
				LandmarkEngine:  ti.LandmarkEngine,
				Landmarks:       ti.Landmarks,
				JobStore:        ti.Store,
				WorkerInProcess: ti.InProcess,
			}
		},
	}))

	mods := []module.Module{
		meta,
		tier2,    // include worker so its ports are registered
		identify, // API module that depends on the worker's ports
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		if opt.EnableSwagger {
			apiDocs(opt.DocsSuffix).Mount(r)
		}
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// each module mounts under its own prefix
			m.MountRoutes(api)
		}
	})

	if ti.InProcess {
		return tp.Worker
	}
	return nil
}

// apiDocs serves the generated document stamped with the running build
func apiDocs(suffix string) *swaggerkit.Docs {
	return swaggerkit.New(docs.SwaggerInfo.ReadDoc,
		swaggerkit.WithTitleSuffix(suffix),
		swaggerkit.WithMutator(func(spec map[string]any) {
			if info, ok := spec["info"].(map[string]any); ok {
				info["version"] = version.Info().Version
			}
		}),
	)
}
