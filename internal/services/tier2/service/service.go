// Package service implements the Tier2 enqueue API and worker loop
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"worlddex/internal/core/routing"
	perr "worlddex/internal/platform/errors"
	dom "worlddex/internal/services/tier2/domain"
	"worlddex/internal/services/tier2/refine"
)

// Service implements the worker, enqueue and jobs ports
type Service interface {
	dom.WorkerPort
	dom.EnqueuePort
	dom.JobsPort
}

// Config controls the worker
type Config struct {
	WorkerID    string
	Concurrency int
	TakeBatch   int
	Poll        time.Duration
	LeaseTTL    time.Duration
	JobTimeout  time.Duration
	PruneEvery  time.Duration
	Retention   dom.Retention
}

func (c Config) withDefaults() Config {
	if c.WorkerID == "" {
		c.WorkerID = "tier2-" + uuid.NewString()[:8]
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.TakeBatch <= 0 {
		c.TakeBatch = c.Concurrency
	}
	if c.Poll <= 0 {
		c.Poll = 500 * time.Millisecond
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 30 * time.Second
	}
	if c.JobTimeout <= 0 || c.JobTimeout >= c.LeaseTTL {
		c.JobTimeout = c.LeaseTTL * 5 / 6
	}
	if c.PruneEvery <= 0 {
		c.PruneEvery = time.Minute
	}
	return c
}

// Svc implements the Tier2 worker and enqueue service
type Svc struct {
	store    dom.JobStore
	handlers refine.Registry
	sink     dom.OutcomeSink
	cfg      Config
	now      func() time.Time
}

var _ Service = (*Svc)(nil)

// New constructs the service, a nil sink drops outcomes
func New(store dom.JobStore, handlers refine.Registry, sink dom.OutcomeSink, cfg Config) *Svc {
	return &Svc{
		store:    store,
		handlers: handlers,
		sink:     sink,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// WorkerID is the lease owner this worker uses
func (s *Svc) WorkerID() string { return s.cfg.WorkerID }

// Enqueue creates a queued job and returns its id
func (s *Svc) Enqueue(ctx context.Context, module routing.Module, p dom.Payload) (string, error) {
	if len(p.Image) == 0 {
		return "", perr.InvalidArgf("tier2 payload has no image")
	}
	j, err := s.store.Create(ctx, module, p)
	if err != nil {
		return "", err
	}
	return j.ID, nil
}

// Job reads a job for observers
func (s *Svc) Job(ctx context.Context, id string) (dom.Job, error) {
	return s.store.Get(ctx, id)
}
