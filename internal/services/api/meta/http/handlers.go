// Package http serves the operator endpoints under /meta
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"worlddex/internal/core/version"
	"worlddex/internal/modkit/httpkit"
)

// Pinger is any backend the readiness probe can reach
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies, PG and CH are probed only when they implement Pinger
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	ProbeBudget time.Duration

	// Pipeline reports the wired identification pipeline, nil reports build info only
	Pipeline func() PipelineResponse
}

const (
	checkOK      = "ok"
	checkFail    = "fail"
	checkSkipped = "skipped"
	checkUnknown = "unknown"
)

// Register mounts the meta routes on r
func Register(r httpkit.Router, d Deps) {
	if d.ProbeBudget <= 0 {
		d.ProbeBudget = 2 * time.Second
	}
	httpkit.Get(r, "/health", d.health)
	httpkit.Get(r, "/ready", d.ready)
	httpkit.Get(r, "/version", func(*http.Request) (any, error) { return version.Info(), nil })
	httpkit.Get(r, "/pipeline", d.pipeline)
}

// HealthResponse is liveness plus uptime
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"worlddex-api"`
	Started string `json:"started" example:"2026-10-01T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// ReadyCheck is one backend probe, Status is ok, fail, skipped or unknown
type ReadyCheck struct {
	Name    string `json:"name"             example:"pg"`
	Status  string `json:"status"           example:"ok"`
	Elapsed int64  `json:"elapsedMs"        example:"3"`
	Error   string `json:"error,omitempty"  example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok, degraded when a backend cannot be probed, or fail
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
}

// PipelineResponse describes the two tier pipeline as wired in this process
type PipelineResponse struct {
	Tier1Engine     string            `json:"tier1Engine"     example:"gemini"`
	BannedTerms     int               `json:"bannedTerms"     example:"64"`
	SafePhrases     int               `json:"safePhrases"     example:"30"`
	Collections     map[string]string `json:"collections"`
	Tier2Modules    []string          `json:"tier2Modules"    example:"landmark,species"`
	AnimalChain     []string          `json:"animalChain"     example:"gemini,openai"`
	LandmarkEngine  string            `json:"landmarkEngine"  example:"gemini"`
	Landmarks       int               `json:"landmarks"       example:"31"`
	JobStore        string            `json:"jobStore"        example:"memory"`
	WorkerInProcess bool              `json:"workerInProcess" example:"true"`
	Build           version.BuildInfo `json:"build"`
}

// @Summary Liveness and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (d Deps) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: d.ServiceName,
		Started: d.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(d.StartedAt) / time.Second),
	}, nil
}

// @Summary Readiness with backend probes
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (d Deps) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), d.ProbeBudget)
	defer cancel()

	targets := []struct {
		name string
		c    any
	}{{"pg", d.PG}, {"ch", d.CH}}

	out := ReadyResponse{Status: checkOK, Checks: make([]ReadyCheck, len(targets))}
	var wg sync.WaitGroup
	for i, tg := range targets {
		wg.Go(func() { out.Checks[i] = probe(ctx, tg.name, tg.c) })
	}
	wg.Wait()

	// skipped backends are unconfigured, the memory job store runs without pg
	for _, c := range out.Checks {
		switch {
		case c.Status == checkFail:
			out.Status = checkFail
		case c.Status == checkUnknown && out.Status == checkOK:
			out.Status = "degraded"
		}
	}
	return out, nil
}

func probe(ctx context.Context, name string, c any) ReadyCheck {
	if c == nil {
		return ReadyCheck{Name: name, Status: checkSkipped}
	}
	p, ok := c.(Pinger)
	if !ok {
		return ReadyCheck{Name: name, Status: checkUnknown}
	}
	start := time.Now()
	err := p.Ping(ctx)
	rc := ReadyCheck{Name: name, Status: checkOK, Elapsed: time.Since(start).Milliseconds()}
	if err != nil {
		rc.Status, rc.Error = checkFail, err.Error()
	}
	return rc
}

// @Summary Identification pipeline wiring and build
// @Tags Meta
// @Produce json
// @Success 200 {object} PipelineResponse
// @Router /meta/pipeline [get]
func (d Deps) pipeline(_ *http.Request) (any, error) {
	var out PipelineResponse
	if d.Pipeline != nil {
		out = d.Pipeline()
	}
	out.Build = version.Info()
	return out, nil
}
