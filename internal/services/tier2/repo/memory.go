// Package repo provides the Tier2 job store implementations
package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"worlddex/internal/core/routing"
	perr "worlddex/internal/platform/errors"
	dom "worlddex/internal/services/tier2/domain"
)

// Memory is a single process job store
// every method copies jobs in and out so callers never share state with the map
type Memory struct {
	mu     sync.Mutex
	jobs   map[string]*dom.Job
	order  []string // creation order, oldest first
	retain dom.Retention
	now    func() time.Time
}

var _ dom.JobStore = (*Memory)(nil)

// NewMemory returns an empty store that prunes terminal jobs past retain
func NewMemory(retain dom.Retention) *Memory {
	return &Memory{
		jobs:   make(map[string]*dom.Job),
		retain: retain,
		now:    time.Now,
	}
}

// Create stores a queued job
func (m *Memory) Create(_ context.Context, module routing.Module, p dom.Payload) (dom.Job, error) {
	if !module.Valid() {
		return dom.Job{}, perr.InvalidArgf("unknown refinement module %q", module)
	}
	now := m.now()
	j := &dom.Job{
		ID:        uuid.NewString(),
		Module:    module,
		Payload:   p,
		State:     dom.StateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	m.order = append(m.order, j.ID)
	return clone(j), nil
}

// Get returns a job by id
func (m *Memory) Get(_ context.Context, id string) (dom.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return dom.Job{}, perr.NotFoundf("job %s not found", id)
	}
	return clone(j), nil
}

// Lease fails expired leases then claims the oldest queued jobs
func (m *Memory) Lease(_ context.Context, owner string, limit int, ttl time.Duration) ([]dom.Job, error) {
	if owner == "" {
		return nil, perr.InvalidArgf("lease owner is required")
	}
	if limit <= 0 {
		return nil, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked(now)

	var out []dom.Job
	for _, id := range m.order {
		if len(out) >= limit {
			break
		}
		j := m.jobs[id]
		if j == nil || j.State != dom.StateQueued {
			continue
		}
		j.State = dom.StateActive
		j.LeasedBy = owner
		j.LeaseExpires = now.Add(ttl)
		j.UpdatedAt = now
		out = append(out, clone(j))
	}
	return out, nil
}

// sweepLocked moves active jobs with a dead lease to failed
func (m *Memory) sweepLocked(now time.Time) {
	for _, id := range m.order {
		j := m.jobs[id]
		if j == nil || j.State != dom.StateActive || now.Before(j.LeaseExpires) {
			continue
		}
		msg := dom.ErrLeaseExpired
		finishLocked(j, dom.StateFailed, nil, &msg, now)
	}
}

// UpdateState applies u only when the job is still in u.From under a live lease held by u.Owner
func (m *Memory) UpdateState(_ context.Context, u dom.Update) error {
	if !dom.CanTransition(u.From, u.To) {
		return perr.InvalidArgf("illegal transition %s -> %s", u.From, u.To)
	}
	if u.To == dom.StateCompleted && u.Result == nil {
		return perr.InvalidArgf("completed job needs a result")
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[u.ID]
	if !ok {
		return perr.NotFoundf("job %s not found", u.ID)
	}
	if j.State != u.From || j.LeasedBy != u.Owner {
		return perr.Conflictf("job %s is %s, not %s for %s", u.ID, j.State, u.From, u.Owner)
	}
	if j.State == dom.StateActive && !now.Before(j.LeaseExpires) {
		return perr.Conflictf("job %s lease expired", u.ID)
	}

	if u.To.Terminal() {
		var res *dom.Result
		var msg *string
		if u.To == dom.StateCompleted {
			r := *u.Result
			res = &r
		} else {
			e := u.Error
			if e == "" {
				e = "failed"
			}
			msg = &e
		}
		finishLocked(j, u.To, res, msg, now)
		m.pruneLocked(m.retain, now)
		return nil
	}

	j.State = u.To
	j.UpdatedAt = now
	return nil
}

// Progress records an advisory percentage, it never moves backwards
func (m *Memory) Progress(_ context.Context, id, owner string, pct int) error {
	pct = clampPct(pct)
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return perr.NotFoundf("job %s not found", id)
	}
	if j.State != dom.StateActive || j.LeasedBy != owner {
		return perr.Conflictf("job %s not active for %s", id, owner)
	}
	if pct > j.Progress {
		j.Progress = pct
		j.UpdatedAt = m.now()
	}
	return nil
}

// ListPending returns queued and active jobs, oldest first
func (m *Memory) ListPending(_ context.Context, limit int) ([]dom.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []dom.Job
	for _, id := range m.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if j := m.jobs[id]; j != nil && !j.State.Terminal() {
			out = append(out, clone(j))
		}
	}
	return out, nil
}

// Prune evicts terminal jobs past r and returns how many went
func (m *Memory) Prune(_ context.Context, r dom.Retention) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(r, m.now()), nil
}

// Len is the number of stored jobs
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *Memory) pruneLocked(r dom.Retention, now time.Time) int {
	var terminal []*dom.Job
	for _, id := range m.order {
		if j := m.jobs[id]; j != nil && j.State.Terminal() {
			terminal = append(terminal, j)
		}
	}
	// newest finished first
	sort.SliceStable(terminal, func(a, b int) bool {
		return terminal[a].FinishedAt.After(*terminal[b].FinishedAt)
	})

	evict := make(map[string]struct{})
	for i, j := range terminal {
		if r.Keep > 0 && i >= r.Keep {
			evict[j.ID] = struct{}{}
			continue
		}
		if r.TTL > 0 && now.Sub(*j.FinishedAt) > r.TTL {
			evict[j.ID] = struct{}{}
		}
	}
	if len(evict) == 0 {
		return 0
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, gone := evict[id]; gone {
			delete(m.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return len(evict)
}

// finishLocked moves j into a terminal state and drops the image, nothing reads it again
func finishLocked(j *dom.Job, to dom.State, res *dom.Result, msg *string, now time.Time) {
	j.State = to
	j.Result = res
	j.Error = msg
	j.UpdatedAt = now
	j.FinishedAt = &now
	j.LeasedBy = ""
	j.LeaseExpires = time.Time{}
	j.Payload.Image = nil
	if to == dom.StateCompleted {
		j.Progress = 100
	}
}

func clone(j *dom.Job) dom.Job {
	c := *j
	if j.Result != nil {
		r := *j.Result
		if r.Label != nil {
			l := *r.Label
			r.Label = &l
		}
		c.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	if j.FinishedAt != nil {
		f := *j.FinishedAt
		c.FinishedAt = &f
	}
	if j.Payload.GPS != nil {
		g := *j.Payload.GPS
		c.Payload.GPS = &g
	}
	return c
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
