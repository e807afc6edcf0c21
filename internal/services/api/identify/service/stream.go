package service

import (
	"context"
	"time"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
	"worlddex/internal/services/api/identify/domain"
	t2 "worlddex/internal/services/tier2/domain"
)

// Stream defaults
const (
	DefaultPoll      = 500 * time.Millisecond
	DefaultHeartbeat = 15 * time.Second
)

// EventWriter receives the stream frames
type EventWriter interface {
	Event(ev domain.StreamEvent) error
	KeepAlive() error
}

// Gateway turns job store polling into a one shot event stream
// it only reads the store, a caller going away never touches the job
type Gateway struct {
	jobs      t2.JobsPort
	poll      time.Duration
	heartbeat time.Duration
}

// NewGateway builds a gateway, poll <= 0 uses DefaultPoll and heartbeat <= 0 disables keep alives
func NewGateway(jobs t2.JobsPort, poll, heartbeat time.Duration) *Gateway {
	if poll <= 0 {
		poll = DefaultPoll
	}
	return &Gateway{jobs: jobs, poll: poll, heartbeat: heartbeat}
}

// Watch writes exactly one terminal event for jobID and returns
// it returns ctx.Err() when the caller leaves first and the writer error when a write fails
func (g *Gateway) Watch(ctx context.Context, jobID string, w EventWriter) error {
	log := logger.C(logger.WithJob(ctx, jobID))

	job, err := g.jobs.Job(ctx, jobID)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeNotFound) {
			log.Warn().Err(err).Msg("job lookup failed")
			return w.Event(domain.StreamEvent{Event: domain.EventError, Data: "Job lookup failed"})
		}
		return w.Event(domain.StreamEvent{Event: domain.EventError, Data: "Job not found"})
	}

	poll := time.NewTicker(g.poll)
	defer poll.Stop()

	var beat <-chan time.Time
	if g.heartbeat > 0 {
		t := time.NewTicker(g.heartbeat)
		defer t.Stop()
		beat = t.C
	}

	for {
		if ev, done := terminal(job); done {
			log.Debug().Str("event", ev.Event).Msg("job stream closed")
			return w.Event(ev)
		}

		select {
		case <-ctx.Done():
			log.Debug().Msg("stream consumer left")
			return ctx.Err()
		case <-beat:
			if err := w.KeepAlive(); err != nil {
				return err
			}
		case <-poll.C:
			next, err := g.jobs.Job(ctx, jobID)
			switch {
			case err == nil:
				job = next
			case perr.IsCode(err, perr.ErrorCodeNotFound):
				return w.Event(domain.StreamEvent{Event: domain.EventError, Data: "Job not found"})
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				log.Debug().Err(err).Msg("job poll failed, retrying")
			}
		}
	}
}

func terminal(j t2.Job) (domain.StreamEvent, bool) {
	switch j.State {
	case t2.StateCompleted:
		return domain.StreamEvent{Event: domain.EventCompleted, Data: j.Result}, true
	case t2.StateFailed:
		return domain.StreamEvent{Event: domain.EventFailed, Data: nil}, true
	default:
		return domain.StreamEvent{}, false
	}
}
