// Package domain holds the Tier2 job model and the ports the rest of the system talks to
package domain

import (
	"context"
	"math"
	"time"

	"worlddex/internal/core/geo"
	"worlddex/internal/core/rarity"
	"worlddex/internal/core/routing"
)

// State is a job lifecycle state
type State string

// Job states, queued -> active -> completed | failed
const (
	StateQueued    State = "queued"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition is allowed
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

// Valid reports whether s is a known state
func (s State) Valid() bool {
	switch s {
	case StateQueued, StateActive, StateCompleted, StateFailed:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to State) bool {
	switch from {
	case StateQueued:
		return to == StateActive
	case StateActive:
		return to == StateCompleted || to == StateFailed
	}
	return false
}

// ErrLeaseExpired is recorded on jobs whose worker lost its lease
const ErrLeaseExpired = "lease expired"

// Payload is everything a refinement module needs about the capture
type Payload struct {
	Image       []byte     `json:"-"`
	ContentType string     `json:"contentType"`
	GPS         *geo.Point `json:"gps,omitempty"`
	Label       string     `json:"label"`
	Category    string     `json:"category,omitempty"`
}

// Result is the refined identification
// a nil Label means the module ran fine but could not name the subject
type Result struct {
	Label      *string     `json:"label"`
	Provider   string      `json:"provider"`
	Confidence float64     `json:"confidence"`
	LandmarkID string      `json:"landmarkId,omitempty"`
	Rarity     rarity.Tier `json:"rarity,omitempty"`
	SecretRare bool        `json:"secretRare,omitempty"`
}

// Unidentified is the null result tagged with provider
func Unidentified(provider string) Result {
	return Result{Provider: provider}
}

// Identified is a named result, confidence is clamped into [0,1]
func Identified(label, provider string, confidence float64) Result {
	if confidence < 0 || math.IsNaN(confidence) {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	return Result{Label: &label, Provider: provider, Confidence: confidence}
}

// Job is one refinement unit of work
type Job struct {
	ID           string         `json:"id"`
	Module       routing.Module `json:"module"`
	Payload      Payload        `json:"payload"`
	State        State          `json:"state"`
	Progress     int            `json:"progress"`
	Result       *Result        `json:"result,omitempty"`
	Error        *string        `json:"error,omitempty"`
	LeasedBy     string         `json:"leasedBy,omitempty"`
	LeaseExpires time.Time      `json:"leaseExpires,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
}

// Update is a compare and set transition, it applies only when the job is
// in From and leased by Owner with a live lease
type Update struct {
	ID     string
	Owner  string
	From   State
	To     State
	Result *Result
	Error  string
}

// Retention bounds how many terminal jobs are kept and for how long
// Keep <= 0 disables the count bound, TTL <= 0 disables the age bound
type Retention struct {
	Keep int
	TTL  time.Duration
}

// JobStore is the seam between enqueuers, workers and stream readers
type JobStore interface {
	Create(ctx context.Context, module routing.Module, p Payload) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	// Lease fails expired active jobs, then claims up to limit queued jobs for owner
	Lease(ctx context.Context, owner string, limit int, ttl time.Duration) ([]Job, error)
	UpdateState(ctx context.Context, u Update) error
	// Progress is advisory and never fails a job
	Progress(ctx context.Context, id, owner string, pct int) error
	ListPending(ctx context.Context, limit int) ([]Job, error)
	Prune(ctx context.Context, r Retention) (int, error)
}

// EnqueuePort creates refinement jobs
type EnqueuePort interface {
	Enqueue(ctx context.Context, module routing.Module, p Payload) (string, error)
}

// JobsPort reads jobs for observers
type JobsPort interface {
	Job(ctx context.Context, id string) (Job, error)
}

// WorkerPort runs the worker loop until ctx is done
type WorkerPort interface {
	Run(ctx context.Context) error
}

// Outcome is one terminal job as recorded by an outcome sink
type Outcome struct {
	JobID      string
	Module     string
	State      State
	Provider   string
	Label      string
	Confidence float64
	Error      string
	Duration   time.Duration
	FinishedAt time.Time
}

// OutcomeSink records terminal jobs for analytics, failures never touch job state
type OutcomeSink interface {
	Record(ctx context.Context, o Outcome) error
}
