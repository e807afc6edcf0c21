package routing

import (
	"testing"

	"worlddex/internal/core/geo"
)

func sp(s string) *string { return &s }

func TestDecide_Table(t *testing.T) {
	cfg := DefaultConfig()
	campus := &geo.Point{Lat: 37.4251, Lng: -122.1693}
	away := &geo.Point{Lat: 40.7128, Lng: -74.0060}

	cases := []struct {
		name string
		in   Input
		want Decision
	}{
		{
			name: "null label never runs",
			in:   Input{Category: sp("animal"), Collections: []string{"Organisms", "Stanford"}, GPS: campus},
			want: Decision{Rule: RuleNoLabel},
		},
		{
			name: "blank label never runs",
			in:   Input{Label: sp("  "), Category: sp("plant"), Collections: []string{"Organisms"}},
			want: Decision{Rule: RuleNoLabel},
		},
		{
			name: "scenario A animal with organisms",
			in:   Input{Label: sp("Golden Retriever"), Category: sp("animal"), Collections: []string{"Organisms"}},
			want: Decision{Run: true, Module: ModuleSpecies, Rule: RuleOrganism},
		},
		{
			name: "plant with organisms ignores gps",
			in:   Input{Label: sp("oak"), Category: sp("Plant"), Collections: []string{"organisms", "Stanford"}, GPS: campus},
			want: Decision{Run: true, Module: ModuleSpecies, Rule: RuleOrganism},
		},
		{
			name: "bird is animal family",
			in:   Input{Label: sp("crow"), Category: sp("bird"), Collections: []string{"Organisms"}},
			want: Decision{Run: true, Module: ModuleSpecies, Rule: RuleOrganism},
		},
		{
			name: "organism without collection falls through to none",
			in:   Input{Label: sp("crow"), Category: sp("bird"), Collections: []string{"Stanford"}, GPS: away},
			want: Decision{Rule: RuleNone},
		},
		{
			name: "keyword rule only without category",
			in:   Input{Label: sp("palm tree"), Collections: []string{"Organisms"}},
			want: Decision{Run: true, Module: ModuleSpecies, Rule: RuleOrganismKeyword},
		},
		{
			name: "keyword rule ignored when category known",
			in:   Input{Label: sp("tree sculpture"), Category: sp("art"), Collections: []string{"Organisms"}},
			want: Decision{Rule: RuleNone},
		},
		{
			name: "scenario B landmark inside fence",
			in:   Input{Label: sp("tower"), Category: sp("building"), Collections: []string{"Stanford"}, GPS: campus},
			want: Decision{Run: true, Module: ModuleLandmark, Rule: RuleGeofence},
		},
		{
			name: "landmark outside fence",
			in:   Input{Label: sp("tower"), Category: sp("building"), Collections: []string{"Stanford"}, GPS: away},
			want: Decision{Rule: RuleNone},
		},
		{
			name: "landmark without gps",
			in:   Input{Label: sp("tower"), Collections: []string{"Stanford"}},
			want: Decision{Rule: RuleNone},
		},
		{
			name: "landmark collection inactive",
			in:   Input{Label: sp("tower"), Collections: []string{"Organisms"}, GPS: campus},
			want: Decision{Rule: RuleNone},
		},
		{
			name: "scenario C no gps no collections",
			in:   Input{Label: sp("coffee mug"), Category: sp("object")},
			want: Decision{Rule: RuleNone},
		},
		{
			name: "fence bounds are exclusive",
			in:   Input{Label: sp("tower"), Collections: []string{"Stanford"}, GPS: &geo.Point{Lat: 37.41, Lng: -122.16}},
			want: Decision{Rule: RuleNone},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.in, cfg)
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestDecide_NullLabelNeverRuns(t *testing.T) {
	cfg := DefaultConfig()
	cats := []*string{nil, sp("plant"), sp("animal"), sp("building")}
	gps := []*geo.Point{nil, {Lat: 37.4251, Lng: -122.1693}}
	for _, c := range cats {
		for _, g := range gps {
			d := Decide(Input{Category: c, GPS: g, Collections: []string{"Organisms", "Stanford"}}, cfg)
			if d.Run {
				t.Fatalf("null label routed: %+v", d)
			}
		}
	}
}

func TestModule_Valid(t *testing.T) {
	if !ModuleSpecies.Valid() || !ModuleLandmark.Valid() || Module("weather").Valid() {
		t.Fatal("module validity wrong")
	}
}
