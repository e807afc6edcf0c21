package refine

import (
	"context"
	"fmt"
	"strings"

	"worlddex/internal/adapters/vision"
	"worlddex/internal/platform/logger"
	dom "worlddex/internal/services/tier2/domain"
)

// AnimalConfidence is reported for every named animal, the providers give no calibrated score
const AnimalConfidence = 0.9

// ProviderExhausted tags the null result returned when every attempt errored
const ProviderExhausted = "exhausted"

const unidentifiable = "UNIDENTIFIABLE"

// expert biases the prompt toward the vocabulary of a coarse animal group
type expert struct {
	role   string
	prompt string
}

var (
	birdExpert = expert{
		role:   "expert ornithologist and bird identifier",
		prompt: "Identify the exact species of bird in this image. Include the common name and scientific name if possible.",
	}
	dogExpert = expert{
		role:   "expert dog breed identifier",
		prompt: "Identify the breed of dog in this image. For mixed breeds, list the most likely breeds in the mix.",
	}
	catExpert = expert{
		role:   "expert cat breed identifier",
		prompt: "Identify the breed of cat in this image. For mixed breeds, list the most likely breeds in the mix.",
	}
	genericExpert = expert{
		role:   "animal species identifier",
		prompt: "Identify the specific species or breed of animal in this image as precisely as possible. Include the common name and scientific name if applicable.",
	}
)

func expertFor(label string) expert {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "bird"):
		return birdExpert
	case strings.Contains(l, "dog"):
		return dogExpert
	case strings.Contains(l, "cat"):
		return catExpert
	}
	return genericExpert
}

const animalRules = `IMPORTANT INSTRUCTIONS:
1. Only respond with the specific name of the animal (e.g., "Steller's Jay" instead of just "bird", or "Golden Retriever" instead of just "dog").
2. Do not include any explanations or descriptions.
3. Be specific but accurate - if you cannot identify the specific species/breed with reasonable confidence, just respond with the word "UNIDENTIFIABLE" (all caps).
4. Be precise - for example with birds, identify the exact species rather than just the family.`

// animalRequest builds the same request for every attempt so fallbacks see an equivalent prompt
func animalRequest(p dom.Payload) vision.Request {
	ex := expertFor(p.Label)
	return vision.Request{
		System: fmt.Sprintf("You are an %s. Given an image of an animal identified as %q, provide a more specific identification. "+
			"Be as precise as possible while remaining accurate. If you cannot identify the specific species/breed with reasonable "+
			"confidence, respond with the word %q and nothing else.", ex.role, p.Label, unidentifiable),
		Prompt:      ex.prompt + "\n\n" + animalRules,
		Image:       p.Image,
		MIME:        p.ContentType,
		Temperature: 0.2,
		MaxTokens:   200,
	}
}

// Animal walks an ordered provider chain until one answers
type Animal struct {
	Chain []vision.Client
}

// Refine tries each provider in order, a provider error moves on to the next one
// the sentinel answer ends the chain with a null result, and so does running out of providers
func (a *Animal) Refine(ctx context.Context, job dom.Job, progress ProgressFunc) (dom.Result, error) {
	log := logger.Named("tier2-animal")
	req := animalRequest(job.Payload)

	step := 80 / max(1, len(a.Chain))
	for i, c := range a.Chain {
		tag := c.Name()
		if i > 0 {
			tag += "-fallback"
		}
		progress(10 + i*step)

		text, err := c.Generate(ctx, req)
		if err != nil {
			// a dead job context is not a provider failure, stop here
			if ctx.Err() != nil {
				return dom.Result{}, ctx.Err()
			}
			log.Warn().Err(err).
				Str("job_id", job.ID).
				Str("provider", c.Name()).
				Int("attempt", i+1).
				Msg("animal attempt failed")
			continue
		}

		label := cleanAnimal(text)
		if label == "" || strings.EqualFold(label, unidentifiable) {
			return dom.Unidentified(tag), nil
		}
		return dom.Identified(label, tag, AnimalConfidence), nil
	}
	return dom.Unidentified(ProviderExhausted), nil
}

// cleanAnimal keeps the first line of a bare answer
func cleanAnimal(text string) string {
	s := strings.TrimSpace(vision.StripCodeFences(text))
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "\"'`*")
	return strings.TrimSpace(strings.TrimSuffix(s, "."))
}
