// Package service runs the identify pipeline: tier1, routing, enqueue and the job stream
package service

import (
	"context"
	"time"

	"worlddex/internal/adapters/vision"
	"worlddex/internal/core/routing"
	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
	"worlddex/internal/services/api/identify/domain"
	t2 "worlddex/internal/services/tier2/domain"
)

// Service is the identify contract used by the http layer
type Service interface {
	Identify(ctx context.Context, in domain.IdentifyInput) (domain.IdentifyOutput, error)
	Stream(ctx context.Context, jobID string, w EventWriter) error
}

// Options wires the pipeline collaborators
type Options struct {
	Classifier Tier1
	Enqueuer   t2.EnqueuePort
	Jobs       t2.JobsPort
	Routing    routing.Config
	Poll       time.Duration // stream poll interval
	Heartbeat  time.Duration // stream keep alive interval, 0 disables
}

// Svc implements Service
type Svc struct {
	tier1   Tier1
	enq     t2.EnqueuePort
	gateway *Gateway
	routing routing.Config
}

// New constructs the service, it panics when a collaborator is missing
func New(o Options) *Svc {
	if o.Classifier == nil || o.Enqueuer == nil || o.Jobs == nil {
		panic("identify service requires Classifier, Enqueuer and Jobs")
	}
	return &Svc{
		tier1:   o.Classifier,
		enq:     o.Enqueuer,
		gateway: NewGateway(o.Jobs, o.Poll, o.Heartbeat),
		routing: o.Routing,
	}
}

// Identify classifies the capture and enqueues a refinement job when routing asks for one
func (s *Svc) Identify(ctx context.Context, in domain.IdentifyInput) (domain.IdentifyOutput, error) {
	img, hint, err := vision.DecodeImage(in.ImageData)
	if err != nil {
		return domain.IdentifyOutput{}, err
	}
	if in.GPS != nil && !in.GPS.Valid() {
		return domain.IdentifyOutput{}, perr.InvalidArgf("gps is out of range")
	}
	mime := vision.PickMIME(in.ContentType, hint, img)

	tier1, err := s.tier1.Classify(ctx, img, mime)
	if err != nil {
		return domain.IdentifyOutput{}, err
	}

	decision := routing.Decide(routing.Input{
		Label:       tier1.Label,
		Category:    tier1.Category,
		Subcategory: tier1.Subcategory,
		Collections: in.ActiveCollections,
		GPS:         in.GPS,
	}, s.routing)

	log := logger.C(ctx)
	log.Debug().
		Bool("run", decision.Run).
		Str("module", string(decision.Module)).
		Str("rule", decision.Rule).
		Msg("tier2 routing")

	if !decision.Run {
		return domain.IdentifyOutput{Status: domain.StatusDone, Tier1: tier1}, nil
	}

	p := t2.Payload{
		Image:       img,
		ContentType: mime,
		GPS:         in.GPS,
	}
	if tier1.Label != nil {
		p.Label = *tier1.Label
	}
	if tier1.Category != nil {
		p.Category = *tier1.Category
	}

	id, err := s.enq.Enqueue(ctx, decision.Module, p)
	if err != nil {
		return domain.IdentifyOutput{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "could not queue refinement")
	}
	log.Info().Str("job_id", id).Str("module", string(decision.Module)).Msg("tier2 job queued")

	return domain.IdentifyOutput{Status: domain.StatusPending, Tier1: tier1, JobID: id}, nil
}

// Stream follows one job until its terminal event
func (s *Svc) Stream(ctx context.Context, jobID string, w EventWriter) error {
	return s.gateway.Watch(ctx, jobID, w)
}
