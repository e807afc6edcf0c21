// Package module mounts the operator meta endpoints
package module

import (
	"time"

	modkit "worlddex/internal/modkit"
	"worlddex/internal/modkit/httpkit"
	str "worlddex/internal/platform/strings"

	metahttp "worlddex/internal/services/api/meta/http"
)

// Module serves the /meta endpoints
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// Ports are optional injections, Pipeline feeds /meta/pipeline
type Ports struct {
	Pipeline func() metahttp.PipelineResponse
}

// New builds the meta module, Ports may inject a pipeline summary
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	injected, _ := b.Ports.(Ports)
	return &Module{
		b: b,
		deps: metahttp.Deps{
			ServiceName: "worlddex-api",
			StartedAt:   time.Now(),
			PG:          deps.PG,
			CH:          deps.CH,
			Pipeline:    injected.Pipeline,
		},
	}
}

// MountRoutes mounts health, readiness and pipeline info
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(r httpkit.Router) { metahttp.Register(r, m.deps) })
}

// Name returns the registry name
func (m *Module) Name() string { return str.Or(m.b.Name, "meta") }

// Ports is always nil, meta exposes nothing
func (m *Module) Ports() any { return nil }
