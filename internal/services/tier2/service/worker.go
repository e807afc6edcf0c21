package service

import (
	"context"
	"sync"
	"time"

	"worlddex/internal/platform/logger"
)

// Run leases jobs and processes them until ctx is done
// cancelling ctx stops leasing, jobs already running finish within JobTimeout before it returns
func (s *Svc) Run(ctx context.Context) error {
	log := logger.Named("tier2-worker")
	sem := make(chan struct{}, s.cfg.Concurrency)
	ticker := time.NewTicker(s.cfg.Poll)
	defer ticker.Stop()
	prune := time.NewTicker(s.cfg.PruneEvery)
	defer prune.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	log.Info().
		Str("worker_id", s.cfg.WorkerID).
		Int("concurrency", s.cfg.Concurrency).
		Dur("lease_ttl", s.cfg.LeaseTTL).
		Strs("modules", s.handlers.Modules()).
		Msg("tier2 worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-prune.C:
			if n, err := s.store.Prune(ctx, s.cfg.Retention); err != nil {
				log.Warn().Err(err).Msg("prune tier2 jobs failed")
			} else if n > 0 {
				log.Debug().Int("pruned", n).Msg("pruned tier2 jobs")
			}
		case <-ticker.C:
			// only lease what we can start now, a leased job waiting on a slot burns its lease
			free := min(s.cfg.TakeBatch, cap(sem)-len(sem))
			if free <= 0 {
				continue
			}
			jobs, err := s.store.Lease(ctx, s.cfg.WorkerID, free, s.cfg.LeaseTTL)
			if err != nil {
				log.Error().Err(err).Msg("lease tier2 jobs failed")
				continue
			}
			for i := range jobs {
				sem <- struct{}{}
				j := jobs[i]
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-sem }()
					if err := s.handleJob(ctx, j); err != nil {
						log.Warn().Err(err).Str("job_id", j.ID).Msg("job update failed")
					}
				}()
			}
		}
	}
}
