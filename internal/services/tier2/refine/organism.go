package refine

import (
	"context"

	"worlddex/internal/adapters/plantid"
	dom "worlddex/internal/services/tier2/domain"
)

// PlantIdentifier returns ranked suggestions for an image, best first
type PlantIdentifier interface {
	Name() string
	Identify(ctx context.Context, image []byte) ([]plantid.Suggestion, error)
}

// Organism asks a single provider, there is no fallback
type Organism struct {
	Provider PlantIdentifier
}

// Refine takes the top suggestion, provider errors fail the job
func (o *Organism) Refine(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error) {
	tag := o.Provider.Name()
	progress(30)
	sugg, err := o.Provider.Identify(ctx, job.Payload.Image)
	if err != nil {
		return dom.Result{}, err
	}
	progress(90)
	if len(sugg) == 0 {
		return dom.Unidentified(tag), nil
	}
	top := sugg[0]
	name := top.DisplayName()
	if name == "" {
		return dom.Unidentified(tag), nil
	}
	return dom.Identified(name, tag, top.Probability), nil
}
