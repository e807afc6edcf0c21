// Package landmarks holds the static landmark registry and the geo narrowing
// and name resolution used to disambiguate a photo taken near several of them
package landmarks

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"worlddex/internal/core/geo"
	"worlddex/internal/core/rarity"
)

//go:embed stanford.toml
var embedded []byte

// Candidate is one registry entry
type Candidate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Center      geo.Point   `json:"center"`
	RadiusM     float64     `json:"radius_m"`
	Aliases     []string    `json:"aliases,omitempty"`
	Rarity      rarity.Tier `json:"rarity"`
	SecretRare  bool        `json:"secret_rare"`
}

type rawLandmark struct {
	ID          string   `toml:"id"`
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Lat         float64  `toml:"lat"`
	Lng         float64  `toml:"lng"`
	RadiusM     float64  `toml:"radius_m"`
	Rarity      string   `toml:"rarity"`
	SecretRare  bool     `toml:"secret_rare"`
	Aliases     []string `toml:"aliases"`
}

type rawRegistry struct {
	Version     int           `toml:"version"`
	Collection  string        `toml:"collection"`
	Description string        `toml:"description"`
	Landmarks   []rawLandmark `toml:"landmark"`
}

// Registry is an immutable set of candidates, safe for concurrent readers
type Registry struct {
	collection  string
	description string
	items       []Candidate
	byID        map[string]int
}

// Default builds the embedded Stanford registry
func Default() (*Registry, error) { return Parse(embedded) }

// MustDefault panics if the embedded registry is broken
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile builds a registry from a TOML file
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("landmarks: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load builds a registry from TOML read from r
func Load(r io.Reader) (*Registry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("landmarks: read: %w", err)
	}
	return Parse(b)
}

// Parse builds a registry from TOML bytes and validates every entry
func Parse(b []byte) (*Registry, error) {
	var raw rawRegistry
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("landmarks: parse registry: %w", err)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("landmarks: unsupported registry version %d (want 1)", raw.Version)
	}

	reg := &Registry{
		collection:  raw.Collection,
		description: raw.Description,
		items:       make([]Candidate, 0, len(raw.Landmarks)),
		byID:        make(map[string]int, len(raw.Landmarks)),
	}
	for i, l := range raw.Landmarks {
		c, err := l.candidate()
		if err != nil {
			return nil, fmt.Errorf("landmarks: entry %d: %w", i, err)
		}
		if _, dup := reg.byID[c.ID]; dup {
			return nil, fmt.Errorf("landmarks: duplicate id %q", c.ID)
		}
		reg.byID[c.ID] = len(reg.items)
		reg.items = append(reg.items, c)
	}
	return reg, nil
}

func (l rawLandmark) candidate() (Candidate, error) {
	id := strings.TrimSpace(l.ID)
	name := strings.TrimSpace(l.Name)
	if id == "" || name == "" {
		return Candidate{}, fmt.Errorf("id and name are required")
	}
	center := geo.Point{Lat: l.Lat, Lng: l.Lng}
	if !center.Valid() {
		return Candidate{}, fmt.Errorf("%s: coordinates out of range", id)
	}
	if l.RadiusM < 0 {
		return Candidate{}, fmt.Errorf("%s: negative radius", id)
	}
	tier := rarity.Common
	if l.Rarity != "" {
		t, ok := rarity.ParseTier(l.Rarity)
		if !ok {
			return Candidate{}, fmt.Errorf("%s: unknown rarity %q", id, l.Rarity)
		}
		tier = t
	}
	aliases := make([]string, 0, len(l.Aliases))
	for _, a := range l.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	return Candidate{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(l.Description),
		Center:      center,
		RadiusM:     l.RadiusM,
		Aliases:     aliases,
		Rarity:      tier,
		SecretRare:  l.SecretRare,
	}, nil
}

// Collection is the collection name the registry belongs to
func (r *Registry) Collection() string { return r.collection }

// Description is the collection blurb
func (r *Registry) Description() string { return r.description }

// Len returns the number of candidates
func (r *Registry) Len() int { return len(r.items) }

// All returns a copy of every candidate in file order
func (r *Registry) All() []Candidate {
	out := make([]Candidate, len(r.items))
	copy(out, r.items)
	return out
}

// Get looks a candidate up by id
func (r *Registry) Get(id string) (Candidate, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Candidate{}, false
	}
	return r.items[i], true
}

// Nearby is a candidate with its distance from the capture point
type Nearby struct {
	Candidate
	DistanceM   float64 `json:"distance_m"`
	HasDistance bool    `json:"has_distance"`
}

// Nearby returns candidates within radiusM of gps, nearest first
// without gps every candidate is returned in file order with no distance
// ties keep file order
func (r *Registry) Nearby(gps *geo.Point, radiusM float64) []Nearby {
	if gps == nil {
		out := make([]Nearby, len(r.items))
		for i, c := range r.items {
			out[i] = Nearby{Candidate: c}
		}
		return out
	}

	out := make([]Nearby, 0, len(r.items))
	for _, c := range r.items {
		d := geo.DistanceMeters(*gps, c.Center)
		if d <= radiusM {
			out = append(out, Nearby{Candidate: c, DistanceM: d, HasDistance: true})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	return out
}
