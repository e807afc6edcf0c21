package refine

import (
	"context"
	"strings"

	"worlddex/internal/core/normalize"
	"worlddex/internal/core/routing"
	dom "worlddex/internal/services/tier2/domain"
)

// plantKeywords route an uncategorised label to the plant provider
var plantKeywords = []string{"tree", "plant", "flower"}

// Species splits the species module between the plant and animal identifiers
type Species struct {
	Plants  Handler
	Animals Handler
	Routing routing.Config
}

// Refine picks the plant identifier for plant family categories, or for an
// empty category whose label names a plant, and the animal chain otherwise
func (s *Species) Refine(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error) {
	if s.isPlant(job.Payload) {
		return s.Plants.Refine(ctx, job, progress)
	}
	return s.Animals.Refine(ctx, job, progress)
}

func (s *Species) isPlant(p dom.Payload) bool {
	if cat := strings.TrimSpace(p.Category); cat != "" {
		return s.Routing.IsPlantCategory(cat)
	}
	for _, tok := range normalize.Tokens(p.Label) {
		for _, kw := range plantKeywords {
			if tok == kw || tok == kw+"s" {
				return true
			}
		}
	}
	return false
}
