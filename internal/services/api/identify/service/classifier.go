package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"worlddex/internal/adapters/vision"
	"worlddex/internal/core/moderation"
	"worlddex/internal/core/rarity"
	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
	"worlddex/internal/services/api/identify/domain"
)

const tier1Prompt = `Identify the primary subject of this photo.
Respond with ONLY a JSON object with exactly these keys:
  "label": the most specific common name for the subject in Title Case, or "UNIDENTIFIABLE" when there is no clear subject
  "category": one broad lowercase category such as plant, animal, landmark, building, food, object, vehicle or person
  "subcategory": a narrower lowercase grouping such as dog, bird, tree, tower, or null
  "rarityScore": an integer from 1 to 100 for how visually striking or rare this subject is
No prose and no code fences.`

const tier1Schema = `{
  "type": "object",
  "required": ["label"],
  "properties": {
    "label":       {"type": ["string", "null"]},
    "category":    {"type": ["string", "null"]},
    "subcategory": {"type": ["string", "null"]},
    "rarityScore": {"type": ["number", "null"]}
  }
}`

// sentinels the provider uses for no identifiable subject
var tier1Sentinels = []string{"unidentifiable", "unknown", "none"}

// Tier1 is the coarse classification step
type Tier1 interface {
	Classify(ctx context.Context, image []byte, mime string) (domain.Tier1Result, error)
}

// Classifier asks a vision engine for a structured label and moderates it
type Classifier struct {
	engine  vision.Client
	banned  *moderation.BannedLabelSet
	timeout time.Duration
	schema  *jsonschema.Schema
}

type rawTier1 struct {
	Label       *string  `json:"label"`
	Category    *string  `json:"category"`
	Subcategory *string  `json:"subcategory"`
	RarityScore *float64 `json:"rarityScore"`
}

// NewClassifier builds a classifier, timeout <= 0 leaves calls unbounded
func NewClassifier(engine vision.Client, banned *moderation.BannedLabelSet, timeout time.Duration) (*Classifier, error) {
	if engine == nil {
		return nil, perr.InvalidArgf("tier1 classifier needs a vision engine")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tier1.json", strings.NewReader(tier1Schema)); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "add tier1 schema")
	}
	schema, err := compiler.Compile("tier1.json")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "compile tier1 schema")
	}
	return &Classifier{engine: engine, banned: banned, timeout: timeout, schema: schema}, nil
}

// Engine names the vision engine in use
func (c *Classifier) Engine() string { return c.engine.Name() }

// Classify runs one provider call, any provider failure fails the whole call
func (c *Classifier) Classify(ctx context.Context, image []byte, mime string) (domain.Tier1Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.engine.Generate(ctx, vision.Request{
		Prompt:    tier1Prompt,
		Image:     image,
		MIME:      mime,
		JSON:      true,
		MaxTokens: 200,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Tier1Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "tier1 provider %s timed out", c.engine.Name())
		}
		return domain.Tier1Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "tier1 provider %s failed", c.engine.Name())
	}

	return c.finish(ctx, c.parse(ctx, text)), nil
}

// parse prefers the schema checked JSON object, an object that fails the schema is read leniently
// and only text that is not JSON at all falls back to a raw label
func (c *Classifier) parse(ctx context.Context, text string) rawTier1 {
	body := vision.StripCodeFences(text)
	debug := func(err error, msg string) {
		logger.C(ctx).Debug().Err(err).Str("engine", c.engine.Name()).Msg(msg)
	}

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		debug(err, "tier1 answer is not json, using raw text")
		label := RawLabel(body)
		return rawTier1{Label: &label}
	}

	if err := c.schema.Validate(v); err == nil {
		var raw rawTier1
		if err := json.Unmarshal([]byte(body), &raw); err == nil {
			return raw
		}
	} else {
		debug(err, "tier1 answer fails the schema, reading it leniently")
	}

	switch t := v.(type) {
	case map[string]any:
		return lenientTier1(t)
	case string:
		label := RawLabel(t)
		return rawTier1{Label: &label}
	default:
		return rawTier1{}
	}
}

// lenientTier1 keeps the fields that carry the expected type, a numeric string score is accepted
func lenientTier1(m map[string]any) rawTier1 {
	str := func(key string) *string {
		if s, ok := m[key].(string); ok {
			return &s
		}
		return nil
	}
	raw := rawTier1{Label: str("label"), Category: str("category"), Subcategory: str("subcategory")}
	switch score := m["rarityScore"].(type) {
	case float64:
		raw.RarityScore = &score
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(score), 64); err == nil {
			raw.RarityScore = &f
		}
	}
	return raw
}

func (c *Classifier) finish(ctx context.Context, raw rawTier1) domain.Tier1Result {
	label := ""
	if raw.Label != nil {
		label = strings.TrimSpace(*raw.Label)
	}
	if label == "" || isSentinel(label) {
		return unidentified()
	}

	if v := c.banned.Check(label); !v.Allowed {
		logger.C(ctx).Info().Str("reason", v.Reason).Str("match", v.Match).Msg("tier1 label rejected")
		return Rejected()
	}

	score := -1.0
	if raw.RarityScore != nil {
		score = *raw.RarityScore
	}
	tier := rarity.TierFromScore(score)
	return domain.Tier1Result{
		Label:       &label,
		Category:    lowerOrNil(raw.Category),
		Subcategory: lowerOrNil(raw.Subcategory),
		RarityScore: raw.RarityScore,
		RarityTier:  tier,
		XPValue:     rarity.BaseXP(tier),
	}
}

// Rejected is the short circuit result for a moderated label
func Rejected() domain.Tier1Result {
	cat, sub, zero := domain.RejectedCategory, domain.RejectedSubcategory, 0.0
	return domain.Tier1Result{
		Category:    &cat,
		Subcategory: &sub,
		RarityScore: &zero,
		RarityTier:  rarity.Common,
	}
}

func unidentified() domain.Tier1Result {
	zero := 0.0
	return domain.Tier1Result{RarityScore: &zero, RarityTier: rarity.Common}
}

// RawLabel pulls a label out of free text: first non empty line, quotes and trailing punctuation trimmed
func RawLabel(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-#*_ \"'`")
		line = strings.TrimRight(line, ".!,;:*_ \"'`")
		if line != "" {
			return line
		}
	}
	return ""
}

func isSentinel(label string) bool {
	for _, s := range tier1Sentinels {
		if strings.EqualFold(label, s) {
			return true
		}
	}
	return false
}

func lowerOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*p))
	if s == "" || s == "null" {
		return nil
	}
	return &s
}
