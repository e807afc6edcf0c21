// Package modkit wires feature modules onto the api router
package modkit

import (
	"net/http"

	"worlddex/internal/modkit/repokit"
	"worlddex/internal/platform/config"
	"worlddex/internal/platform/logger"
	phttp "worlddex/internal/platform/net/http"
	"worlddex/internal/platform/store"
)

// Deps are the shared handles every module is built from
// PG and CH are nil when their backend is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// Module is a mountable feature with an optional port bundle for cross wiring
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// Option adjusts a module at construction
type Option func(*Built)

// Built is the resolved option set a module keeps
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
}

// Build resolves opts in order, later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Mount attaches register under the prefix behind the module middleware
func (b Built) Mount(r phttp.Router, register func(phttp.Router)) {
	r.Route(b.Prefix, func(sub phttp.Router) {
		for _, mw := range b.Mw {
			sub.Use(mw)
		}
		register(sub)
	})
}

// WithName names the module in logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module under prefix
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects the ports another module exposes, the importer owns T
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }
