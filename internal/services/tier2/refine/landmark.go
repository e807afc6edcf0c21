package refine

import (
	"context"
	"fmt"
	"strings"

	"worlddex/internal/adapters/vision"
	"worlddex/internal/core/geo"
	"worlddex/internal/core/landmarks"
	"worlddex/internal/platform/logger"
	dom "worlddex/internal/services/tier2/domain"
)

// DefaultLandmarkRadiusM is the candidate search radius around the capture point
const DefaultLandmarkRadiusM = 1000

// Landmark narrows the registry around the capture and asks a provider to pick one name
type Landmark struct {
	Registry *landmarks.Registry
	Provider vision.Client
	RadiusM  float64
}

// Refine returns the resolved candidate with confidence 1, or a null result
// when nothing is in range or the answer does not resolve to exactly one candidate
func (l *Landmark) Refine(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error) {
	tag := l.Provider.Name() + "-landmark"
	radius := l.RadiusM
	if radius <= 0 {
		radius = DefaultLandmarkRadiusM
	}

	nearby := l.Registry.Nearby(job.Payload.GPS, radius)
	progress(20)
	if len(nearby) == 0 {
		return dom.Unidentified(tag), nil
	}

	text, err := l.Provider.Generate(ctx, vision.Request{
		System:      fmt.Sprintf("You are a %s tour guide who recognises campus landmarks from photos.", l.Registry.Collection()),
		Prompt:      landmarkPrompt(nearby),
		Image:       job.Payload.Image,
		MIME:        job.Payload.ContentType,
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		return dom.Result{}, err
	}
	progress(80)

	c, kind, ok := landmarks.Resolve(text, landmarks.Candidates(nearby))
	logger.Named("tier2-landmark").Debug().
		Str("job_id", job.ID).
		Int("candidates", len(nearby)).
		Str("answer", landmarks.CleanAnswer(text)).
		Str("match", string(kind)).
		Msg("landmark resolution")
	if !ok {
		return dom.Unidentified(tag), nil
	}

	res := dom.Identified(c.Name, tag, 1.0)
	res.LandmarkID = c.ID
	res.Rarity = c.Rarity
	res.SecretRare = c.SecretRare
	return res, nil
}

// landmarkPrompt enumerates candidates nearest first
func landmarkPrompt(nearby []landmarks.Nearby) string {
	var b strings.Builder
	b.WriteString("These are the landmarks near where the photo was taken:\n")
	for _, n := range nearby {
		if n.HasDistance {
			fmt.Fprintf(&b, "- %s (%s away)\n", n.Name, geo.FormatDistance(n.DistanceM))
		} else {
			fmt.Fprintf(&b, "- %s\n", n.Name)
		}
	}
	b.WriteString("\nRespond ONLY with the name of the landmark in the photo, exactly as written in the list, or \"Unknown\".")
	return b.String()
}
