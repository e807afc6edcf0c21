package module

import (
	"strings"
	"time"

	"worlddex/internal/platform/config"
)

// Store backends
const (
	StoreMemory = "memory"
	StorePG     = "pg"
)

// Outcome sink backends
const (
	OutcomesNone       = "none"
	OutcomesClickHouse = "clickhouse"
)

// Options controls the Tier2 worker, its store and its providers
type Options struct {
	Store          string
	WorkerID       string
	Concurrency    int
	TakeBatch      int
	Poll           time.Duration
	LeaseTTL       time.Duration
	JobTimeout     time.Duration
	Retain         int
	RetainTTL      time.Duration
	PruneEvery     time.Duration
	AnimalChain    []string
	LandmarkEngine string
	LandmarkRadius float64
	LandmarksFile  string
	Outcomes       string
	Migrate        bool
	InProcess      bool // run the worker inside the API process, forced on for the memory store

	PlantCategories []string

	GeminiKey      string
	GeminiModel    string
	GeminiEndpoint string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	PlantIDKey     string
	PlantIDBaseURL string
	PlantIDTimeout time.Duration
}

// FromConfig reads TIER2_ plus the provider prefixes
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("TIER2_")
	g := cfg.Prefix("GEMINI_")
	o := cfg.Prefix("OPENAI_")
	p := cfg.Prefix("PLANTID_")
	return Options{
		Store:          strings.ToLower(c.MayEnum("STORE", StoreMemory, StoreMemory, StorePG)),
		WorkerID:       c.MayString("WORKER_ID", ""),
		Concurrency:    c.MayInt("WORKER_CONCURRENCY", 4),
		TakeBatch:      c.MayInt("QUEUE_TAKE_BATCH", 4),
		Poll:           c.MayDuration("POLL", 500*time.Millisecond),
		LeaseTTL:       c.MayDuration("LEASE_TTL", 30*time.Second),
		JobTimeout:     c.MayDuration("JOB_TIMEOUT", 25*time.Second),
		Retain:         c.MayInt("RETAIN", 1000),
		RetainTTL:      c.MayDuration("RETAIN_TTL", time.Hour),
		PruneEvery:     c.MayDuration("PRUNE_EVERY", time.Minute),
		AnimalChain:    c.MayCSV("ANIMAL_CHAIN", []string{"gemini", "openai"}),
		LandmarkEngine: c.MayString("LANDMARK_ENGINE", "gemini"),
		LandmarkRadius: c.MayFloat64("LANDMARK_RADIUS_M", 1000),
		LandmarksFile:  cfg.Prefix("LANDMARKS_").MayString("FILE", ""),
		Outcomes:       strings.ToLower(c.MayEnum("OUTCOMES", OutcomesNone, OutcomesNone, OutcomesClickHouse)),
		Migrate:        c.MayBool("MIGRATE", true),
		InProcess:      c.MayBool("IN_PROCESS", false),

		PlantCategories: cfg.Prefix("ROUTING_").MayCSV("PLANT_CATEGORIES", []string{"plant", "tree", "flower"}),

		GeminiKey:      g.MayString("API_KEY", ""),
		GeminiModel:    g.MayString("MODEL", ""),
		GeminiEndpoint: g.MayString("ENDPOINT", ""),
		OpenAIKey:      o.MayString("API_KEY", ""),
		OpenAIModel:    o.MayString("MODEL", ""),
		OpenAIBaseURL:  o.MayString("BASE_URL", ""),
		PlantIDKey:     p.MayString("API_KEY", ""),
		PlantIDBaseURL: p.MayString("BASE_URL", ""),
		PlantIDTimeout: p.MayDuration("TIMEOUT", 20*time.Second),
	}
}

// merge applies non zero overrides onto o
func (o Options) merge(ov Options) Options {
	if ov.Store != "" {
		o.Store = ov.Store
	}
	if ov.WorkerID != "" {
		o.WorkerID = ov.WorkerID
	}
	if ov.Concurrency != 0 {
		o.Concurrency = ov.Concurrency
	}
	if ov.TakeBatch != 0 {
		o.TakeBatch = ov.TakeBatch
	}
	if ov.Poll != 0 {
		o.Poll = ov.Poll
	}
	if ov.LeaseTTL != 0 {
		o.LeaseTTL = ov.LeaseTTL
	}
	if ov.JobTimeout != 0 {
		o.JobTimeout = ov.JobTimeout
	}
	if ov.Retain != 0 {
		o.Retain = ov.Retain
	}
	if ov.RetainTTL != 0 {
		o.RetainTTL = ov.RetainTTL
	}
	if len(ov.AnimalChain) > 0 {
		o.AnimalChain = ov.AnimalChain
	}
	if ov.LandmarkEngine != "" {
		o.LandmarkEngine = ov.LandmarkEngine
	}
	if ov.LandmarkRadius != 0 {
		o.LandmarkRadius = ov.LandmarkRadius
	}
	if ov.LandmarksFile != "" {
		o.LandmarksFile = ov.LandmarksFile
	}
	if ov.Outcomes != "" {
		o.Outcomes = ov.Outcomes
	}
	return o
}
