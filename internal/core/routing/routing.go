// Package routing decides whether a Tier1 result earns a refinement job and which module runs it
// Decide is pure: same input, same decision, no side effects
package routing

import (
	"strings"

	"worlddex/internal/core/geo"
)

// Module names a refinement module
type Module string

// Refinement modules
const (
	ModuleSpecies  Module = "species"
	ModuleLandmark Module = "landmark"
)

// Valid reports whether m names a known module
func (m Module) Valid() bool { return m == ModuleSpecies || m == ModuleLandmark }

// Decision is the routing outcome
type Decision struct {
	Run    bool   `json:"run"`
	Module Module `json:"module,omitempty"`
	Rule   string `json:"rule,omitempty"`
}

// Rule names reported on a Decision, useful in logs
const (
	RuleNoLabel         = "no_label"
	RuleOrganism        = "organism_category"
	RuleOrganismKeyword = "organism_keyword"
	RuleGeofence        = "landmark_geofence"
	RuleNone            = "no_match"
)

// Input is the subset of a Tier1 result and request context routing looks at
type Input struct {
	Label       *string
	Category    *string
	Subcategory *string
	Collections []string
	GPS         *geo.Point
}

// Config carries the tunables, zero values are not usable, start from DefaultConfig
type Config struct {
	OrganismCollection string
	LandmarkCollection string
	PlantCategories    []string
	AnimalCategories   []string
	Keywords           []string
	Fence              geo.Rect
}

// DefaultConfig is the Stanford deployment
func DefaultConfig() Config {
	return Config{
		OrganismCollection: "Organisms",
		LandmarkCollection: "Stanford",
		PlantCategories:    []string{"plant", "tree", "flower"},
		AnimalCategories:   []string{"animal", "bird", "mammal", "insect"},
		Keywords:           []string{"tree", "plant", "flower", "bird", "animal", "mammal", "insect"},
		Fence:              geo.Rect{MinLat: 37.41, MaxLat: 37.44, MinLng: -122.18, MaxLng: -122.15},
	}
}

// Decide applies the rules in order
//  1. no label, no job
//  2. organism category with the organism collection active
//  3. unknown category, a life keyword in the label, organism collection active
//  4. landmark collection active and GPS inside the fence
//  5. nothing
func Decide(in Input, cfg Config) Decision {
	label := trimmed(in.Label)
	if label == "" {
		return Decision{Rule: RuleNoLabel}
	}

	organisms := hasCollection(in.Collections, cfg.OrganismCollection)
	category := strings.ToLower(trimmed(in.Category))

	if category != "" {
		if organisms && cfg.IsOrganismCategory(category) {
			return Decision{Run: true, Module: ModuleSpecies, Rule: RuleOrganism}
		}
	} else if organisms && cfg.HasKeyword(label) {
		return Decision{Run: true, Module: ModuleSpecies, Rule: RuleOrganismKeyword}
	}

	if in.GPS != nil && hasCollection(in.Collections, cfg.LandmarkCollection) && cfg.Fence.Contains(*in.GPS) {
		return Decision{Run: true, Module: ModuleLandmark, Rule: RuleGeofence}
	}
	return Decision{Rule: RuleNone}
}

// IsOrganismCategory reports plant or animal family membership
func (c Config) IsOrganismCategory(category string) bool {
	return c.IsPlantCategory(category) || c.IsAnimalCategory(category)
}

// IsPlantCategory reports plant family membership
func (c Config) IsPlantCategory(category string) bool {
	return containsFold(c.PlantCategories, category)
}

// IsAnimalCategory reports animal family membership
func (c Config) IsAnimalCategory(category string) bool {
	return containsFold(c.AnimalCategories, category)
}

// HasKeyword reports whether any life keyword appears in label
func (c Config) HasKeyword(label string) bool {
	l := strings.ToLower(label)
	for _, k := range c.Keywords {
		if k != "" && strings.Contains(l, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func hasCollection(active []string, name string) bool {
	if name == "" {
		return false
	}
	return containsFold(active, name)
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
