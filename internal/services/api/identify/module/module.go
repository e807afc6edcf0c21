// Package module wires identify into the API using modkit
package module

import (
	"time"

	"worlddex/internal/adapters/vision"
	"worlddex/internal/core/moderation"
	modkit "worlddex/internal/modkit"
	"worlddex/internal/modkit/httpkit"
	"worlddex/internal/platform/logger"

	ihttp "worlddex/internal/services/api/identify/http"
	isvc "worlddex/internal/services/api/identify/service"
	t2 "worlddex/internal/services/tier2/domain"
)

// one provider call per capture, a failure surfaces as 503 right away
const tier1Attempts = 1

// Module serves POST /identify and the job stream
type Module struct {
	b      modkit.Built
	svc    isvc.Service
	info   Info
	limits ihttp.Limits
}

// Ports declares the tier2 ports this module needs injected
type Ports struct {
	Enqueuer t2.EnqueuePort
	Jobs     t2.JobsPort
}

// Info describes the wired pipeline for operators
type Info struct {
	Tier1Engine  string `json:"tier1Engine"  example:"gemini"`
	BannedTerms  int    `json:"bannedTerms"  example:"64"`
	SafePhrases  int    `json:"safePhrases"  example:"30"`
	Organisms    string `json:"organisms"    example:"Organisms"`
	Landmarks    string `json:"landmarks"    example:"Stanford"`
	StreamPollMS int64  `json:"streamPollMs" example:"500"`
}

// Exposed is what other modules may look up under "identify"
type Exposed struct {
	Service isvc.Service
	Info    Info
}

// New constructs the identify module, it panics when ports or providers are unusable
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("identify"),
		modkit.WithPrefix("/identify"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	log := logger.Named("identify")

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Enqueuer == nil || injected.Jobs == nil {
		panic("identify API module requires Enqueuer and Jobs ports (from services/tier2)")
	}

	banned, err := moderation.Default()
	if cfg.BannedFile != "" {
		banned, err = moderation.LoadFile(cfg.BannedFile)
	}
	if err != nil {
		log.Panic().Err(err).Str("file", cfg.BannedFile).Msg("banned label set failed to load")
	}

	engines := vision.NewEngines(
		vision.NewGemini(vision.GeminiOptions{
			APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, Endpoint: cfg.GeminiEndpoint, Attempts: tier1Attempts,
		}),
		vision.NewOpenAI(vision.OpenAIOptions{
			APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL, Attempts: tier1Attempts,
		}),
	)
	engine, err := engines.Get(cfg.Tier1Engine)
	if err != nil {
		log.Panic().Err(err).Msg("tier1 engine")
	}
	classifier, err := isvc.NewClassifier(engine, banned, cfg.Tier1Timeout)
	if err != nil {
		log.Panic().Err(err).Msg("tier1 classifier")
	}

	svc := isvc.New(isvc.Options{
		Classifier: classifier,
		Enqueuer:   injected.Enqueuer,
		Jobs:       injected.Jobs,
		Routing:    cfg.Routing,
		Poll:       cfg.StreamPoll,
		Heartbeat:  cfg.Heartbeat,
	})

	m := &Module{
		b:   b,
		svc: svc,
		info: Info{
			Tier1Engine:  classifier.Engine(),
			BannedTerms:  banned.Len(),
			SafePhrases:  banned.SafeLen(),
			Organisms:    cfg.Routing.OrganismCollection,
			Landmarks:    cfg.Routing.LandmarkCollection,
			StreamPollMS: cfg.StreamPoll.Milliseconds(),
		},
		limits: ihttp.Limits{
			MaxBytes:    cfg.MaxBodyBytes,
			MaxInFlight: cfg.MaxInFlight,
			Backlog:     cfg.Backlog,
		},
	}
	if cfg.Tier1Timeout > 0 {
		m.limits.Timeout = cfg.Tier1Timeout + 5*time.Second
	}
	return m
}

// Info reports the wired pipeline
func (m *Module) Info() Info { return m.info }

// MountRoutes mounts the identify routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(r httpkit.Router) { ihttp.Register(r, m.svc, m.limits) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }

// Ports exposes the service and pipeline info
func (m *Module) Ports() any { return Exposed{Service: m.svc, Info: m.info} }
