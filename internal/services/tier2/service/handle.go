package service

import (
	"context"
	"time"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
	dom "worlddex/internal/services/tier2/domain"
)

// handleJob runs one leased job to a terminal state
// a module error or panic fails the job, only store errors are returned
func (s *Svc) handleJob(ctx context.Context, j dom.Job) error {
	ctx = logger.WithJob(ctx, j.ID)
	log := logger.C(ctx).With().Str("component", "tier2-worker").Str("module", string(j.Module)).Logger()
	start := s.now()

	// a job outlives worker shutdown, only JobTimeout bounds it
	wctx := context.WithoutCancel(ctx)

	jctx, cancel := context.WithTimeout(wctx, s.cfg.JobTimeout)
	res, rerr := s.refine(jctx, j, func(pct int) {
		if err := s.store.Progress(wctx, j.ID, s.cfg.WorkerID, pct); err != nil {
			log.Debug().Err(err).Int("progress", pct).Msg("progress update dropped")
		}
	})
	cancel()

	u := dom.Update{ID: j.ID, Owner: s.cfg.WorkerID, From: dom.StateActive}
	if rerr != nil {
		u.To = dom.StateFailed
		u.Error = rerr.Error()
		log.Warn().Err(rerr).Msg("tier2 job failed")
	} else {
		u.To = dom.StateCompleted
		u.Result = &res
		ev := log.Info().Str("provider", res.Provider).Float64("confidence", res.Confidence)
		if res.Label != nil {
			ev = ev.Str("label", *res.Label)
		}
		ev.Msg("tier2 job completed")
	}

	if err := s.store.UpdateState(wctx, u); err != nil {
		return err
	}
	s.record(wctx, j, u, start)
	return nil
}

// refine dispatches under a recover guard so a broken module cannot take the worker down
func (s *Svc) refine(ctx context.Context, j dom.Job, progress func(int)) (res dom.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("refinement module %s panicked: %v", j.Module, r)
		}
	}()
	return s.handlers.Dispatch(ctx, j, progress)
}

// record hands the outcome to the sink, failures never touch the job
func (s *Svc) record(ctx context.Context, j dom.Job, u dom.Update, start time.Time) {
	if s.sink == nil {
		return
	}
	fin := s.now()
	o := dom.Outcome{
		JobID:      j.ID,
		Module:     string(j.Module),
		State:      u.To,
		Error:      u.Error,
		Duration:   fin.Sub(start),
		FinishedAt: fin,
	}
	if u.Result != nil {
		o.Provider = u.Result.Provider
		o.Confidence = u.Result.Confidence
		if u.Result.Label != nil {
			o.Label = *u.Result.Label
		}
	}
	if err := s.sink.Record(ctx, o); err != nil {
		logger.Named("tier2-worker").Warn().Err(err).Str("job_id", j.ID).Msg("record outcome failed")
	}
}
