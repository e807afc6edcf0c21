package service

import (
	"context"
	"sync"

	"worlddex/internal/adapters/vision"
	"worlddex/internal/core/routing"
	"worlddex/internal/services/api/identify/domain"
	t2 "worlddex/internal/services/tier2/domain"
)

type fakeVision struct {
	mu    sync.Mutex
	text  string
	err   error
	block bool
	reqs  []vision.Request
}

func (f *fakeVision) Name() string  { return "gemini" }
func (f *fakeVision) Model() string { return "test" }

func (f *fakeVision) Generate(ctx context.Context, req vision.Request) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

type fakeEnqueuer struct {
	mu     sync.Mutex
	err    error
	module []routing.Module
	loads  []t2.Payload
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, m routing.Module, p t2.Payload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.module = append(f.module, m)
	f.loads = append(f.loads, p)
	return "job-1", nil
}

// scriptJobs answers Job from a function so tests can move state between polls
type scriptJobs struct {
	mu    sync.Mutex
	calls int
	next  func(call int) (t2.Job, error)
}

func (s *scriptJobs) Job(_ context.Context, _ string) (t2.Job, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	return s.next(n)
}

type recordWriter struct {
	mu     sync.Mutex
	events []domain.StreamEvent
	beats  int
	err    error
}

func (r *recordWriter) Event(ev domain.StreamEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordWriter) KeepAlive() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beats++
	return r.err
}
