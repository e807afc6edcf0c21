// Package refine holds the Tier2 refinement modules and the registry the worker dispatches through
package refine

import (
	"context"

	"worlddex/internal/core/routing"
	perr "worlddex/internal/platform/errors"
	dom "worlddex/internal/services/tier2/domain"
)

// ProgressFunc reports an advisory checkpoint, 0..100
type ProgressFunc func(pct int)

// Handler refines one job
// returning an error fails the job, a nil Result.Label is a successful "could not identify"
type Handler interface {
	Refine(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error)

// Refine calls f
func (f HandlerFunc) Refine(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error) {
	return f(ctx, job, progress)
}

// Registry maps a routing module to its handler
type Registry map[routing.Module]Handler

// Dispatch runs the handler registered for the job's module
func (r Registry) Dispatch(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error) {
	h, ok := r[job.Module]
	if !ok || h == nil {
		return dom.Result{}, perr.InvalidArgf("no refinement module registered for %q", job.Module)
	}
	if progress == nil {
		progress = func(int) {}
	}
	return h.Refine(ctx, job, progress)
}

// Modules lists the registered module names
func (r Registry) Modules() []string {
	out := make([]string, 0, len(r))
	for _, m := range []routing.Module{routing.ModuleSpecies, routing.ModuleLandmark} {
		if _, ok := r[m]; ok {
			out = append(out, string(m))
		}
	}
	return out
}
