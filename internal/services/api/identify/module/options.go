package module

import (
	"time"

	"worlddex/internal/core/routing"
	"worlddex/internal/platform/config"
)

// Options controls the identify pipeline
type Options struct {
	Tier1Engine   string
	Tier1Timeout  time.Duration
	MaxBodyBytes  int64
	MaxInFlight   int
	Backlog       int
	StreamPoll    time.Duration
	Heartbeat     time.Duration
	BannedFile    string
	LandmarksFile string

	Routing routing.Config

	GeminiKey      string
	GeminiModel    string
	GeminiEndpoint string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
}

// FromConfig reads IDENTIFY_, ROUTING_, MODERATION_ and the provider prefixes
func FromConfig(cfg config.Conf) Options {
	ic := cfg.Prefix("IDENTIFY_")
	rc := cfg.Prefix("ROUTING_")
	g := cfg.Prefix("GEMINI_")
	o := cfg.Prefix("OPENAI_")

	rt := routing.DefaultConfig()
	rt.OrganismCollection = rc.MayString("ORGANISM_COLLECTION", rt.OrganismCollection)
	rt.LandmarkCollection = rc.MayString("LANDMARK_COLLECTION", rt.LandmarkCollection)
	rt.PlantCategories = rc.MayCSV("PLANT_CATEGORIES", rt.PlantCategories)
	rt.AnimalCategories = rc.MayCSV("ANIMAL_CATEGORIES", rt.AnimalCategories)
	rt.Keywords = rc.MayCSV("KEYWORDS", rt.Keywords)
	rt.Fence.MinLat = rc.MayFloat64("FENCE_MIN_LAT", rt.Fence.MinLat)
	rt.Fence.MaxLat = rc.MayFloat64("FENCE_MAX_LAT", rt.Fence.MaxLat)
	rt.Fence.MinLng = rc.MayFloat64("FENCE_MIN_LNG", rt.Fence.MinLng)
	rt.Fence.MaxLng = rc.MayFloat64("FENCE_MAX_LNG", rt.Fence.MaxLng)

	return Options{
		Tier1Engine:   ic.MayEnum("TIER1_ENGINE", "gemini", "gemini", "openai"),
		Tier1Timeout:  ic.MayDuration("TIER1_TIMEOUT", 30*time.Second),
		MaxBodyBytes:  int64(ic.MayInt("MAX_BODY_BYTES", 12<<20)),
		MaxInFlight:   ic.MayInt("MAX_INFLIGHT", 32),
		Backlog:       ic.MayInt("INFLIGHT_BACKLOG", 64),
		StreamPoll:    ic.MayDuration("STREAM_POLL", 500*time.Millisecond),
		Heartbeat:     ic.MayDuration("STREAM_HEARTBEAT", 15*time.Second),
		BannedFile:    cfg.Prefix("MODERATION_").MayString("FILE", ""),
		LandmarksFile: cfg.Prefix("LANDMARKS_").MayString("FILE", ""),

		Routing: rt,

		GeminiKey:      g.MayString("API_KEY", ""),
		GeminiModel:    g.MayString("MODEL", ""),
		GeminiEndpoint: g.MayString("ENDPOINT", ""),
		OpenAIKey:      o.MayString("API_KEY", ""),
		OpenAIModel:    o.MayString("MODEL", ""),
		OpenAIBaseURL:  o.MayString("BASE_URL", ""),
	}
}
