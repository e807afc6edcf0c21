package refine

import (
	"context"
	"sync"

	"worlddex/internal/adapters/plantid"
	"worlddex/internal/adapters/vision"
)

type fakeVision struct {
	name string
	text string
	err  error

	mu   sync.Mutex
	reqs []vision.Request
}

func (f *fakeVision) Name() string  { return f.name }
func (f *fakeVision) Model() string { return f.name + "-test" }

func (f *fakeVision) Generate(_ context.Context, req vision.Request) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.text, f.err
}

func (f *fakeVision) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakePlants struct {
	sugg []plantid.Suggestion
	err  error
}

func (f *fakePlants) Name() string { return "plant.id" }

func (f *fakePlants) Identify(context.Context, []byte) ([]plantid.Suggestion, error) {
	return f.sugg, f.err
}
