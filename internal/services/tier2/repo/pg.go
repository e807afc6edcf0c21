package repo

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"worlddex/internal/core/geo"
	"worlddex/internal/core/routing"
	"worlddex/internal/modkit/repokit"
	perr "worlddex/internal/platform/errors"
	dom "worlddex/internal/services/tier2/domain"
)

//go:embed schema.sql
var schema string

// Migrate creates the job table and its indexes, it is safe to run on every boot
func Migrate(ctx context.Context, q repokit.Queryer) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := q.Exec(ctx, stmt); err != nil {
			return perr.FromPostgres(err, "migrate tier2_jobs")
		}
	}
	return nil
}

type (
	pgBinder struct{}
	queries  struct{ q repokit.Queryer }
)

func (pgBinder) Bind(q repokit.Queryer) *queries { return &queries{q: q} }

// Postgres is the shared job store, API and worker processes can run apart
type Postgres struct {
	db     repokit.TxRunner
	binder repokit.Binder[*queries]
	retain dom.Retention
}

var _ dom.JobStore = (*Postgres)(nil)

// NewPostgres returns a job store over db
func NewPostgres(db repokit.TxRunner, retain dom.Retention) *Postgres {
	return &Postgres{db: db, binder: pgBinder{}, retain: retain}
}

const jobCols = `
	job_id::text, module, state, progress, image, content_type,
	gps_lat, gps_lng, tier1_label, tier1_category, result, error,
	COALESCE(leased_by, ''), lease_expires_at, created_at, updated_at, finished_at`

// Create inserts a queued job
func (s *Postgres) Create(ctx context.Context, module routing.Module, p dom.Payload) (dom.Job, error) {
	if !module.Valid() {
		return dom.Job{}, perr.InvalidArgf("unknown refinement module %q", module)
	}
	var lat, lng *float64
	if p.GPS != nil {
		lat, lng = &p.GPS.Lat, &p.GPS.Lng
	}
	sql := `
		INSERT INTO tier2_jobs (job_id, module, image, content_type, gps_lat, gps_lng, tier1_label, tier1_category)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + jobCols
	row := s.db.QueryRow(ctx, sql, uuid.NewString(), string(module), p.Image, p.ContentType, lat, lng, p.Label, p.Category)
	j, err := scanJob(row)
	if err != nil {
		return dom.Job{}, perr.FromPostgres(err, "insert tier2 job")
	}
	return j, nil
}

// Get loads a job by id
func (s *Postgres) Get(ctx context.Context, id string) (dom.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return dom.Job{}, perr.NotFoundf("job %s not found", id)
	}
	return s.binder.Bind(s.db).get(ctx, id)
}

func (r *queries) get(ctx context.Context, id string) (dom.Job, error) {
	rows, err := r.q.Query(ctx, `SELECT `+jobCols+` FROM tier2_jobs WHERE job_id = $1::uuid`, id)
	if err != nil {
		return dom.Job{}, perr.FromPostgres(err, "select tier2 job")
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return dom.Job{}, perr.FromPostgres(err, "select tier2 job")
		}
		return dom.Job{}, perr.NotFoundf("job %s not found", id)
	}
	return scanJob(rows)
}

// Lease fails expired leases then claims the oldest queued jobs, in one transaction
func (s *Postgres) Lease(ctx context.Context, owner string, limit int, ttl time.Duration) ([]dom.Job, error) {
	if owner == "" {
		return nil, perr.InvalidArgf("lease owner is required")
	}
	if limit <= 0 {
		return nil, nil
	}
	var out []dom.Job
	err := repokit.InTx(ctx, s.db, s.binder, func(r *queries) error {
		if err := r.sweep(ctx); err != nil {
			return err
		}
		jobs, err := r.lease(ctx, owner, limit, ttl)
		out = jobs
		return err
	})
	if err != nil {
		return nil, perr.FromPostgres(err, "lease tier2 jobs")
	}
	return out, nil
}

func (r *queries) sweep(ctx context.Context) error {
	const sql = `
		UPDATE tier2_jobs
		   SET state = 'failed',
		       error = $1,
		       image = NULL,
		       leased_by = NULL,
		       lease_expires_at = NULL,
		       finished_at = now(),
		       updated_at = now()
		 WHERE state = 'active'
		   AND lease_expires_at <= now()
	`
	_, err := r.q.Exec(ctx, sql, dom.ErrLeaseExpired)
	return err
}

func (r *queries) lease(ctx context.Context, owner string, limit int, ttl time.Duration) ([]dom.Job, error) {
	sql := `
		WITH ready AS (
			SELECT job_id
			  FROM tier2_jobs
			 WHERE state = 'queued'
			 ORDER BY created_at ASC
			 LIMIT $1
			 FOR UPDATE SKIP LOCKED
		), upd AS (
			UPDATE tier2_jobs j
			   SET state = 'active',
			       leased_by = $2,
			       lease_expires_at = now() + $3::interval,
			       updated_at = now()
			 WHERE j.job_id IN (SELECT job_id FROM ready)
			RETURNING j.*
		)
		SELECT ` + jobCols + ` FROM upd ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, sql, limit, owner, ttl.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dom.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// UpdateState is a compare and set on state, owner and a live lease
func (s *Postgres) UpdateState(ctx context.Context, u dom.Update) error {
	if !dom.CanTransition(u.From, u.To) {
		return perr.InvalidArgf("illegal transition %s -> %s", u.From, u.To)
	}
	if u.To == dom.StateCompleted && u.Result == nil {
		return perr.InvalidArgf("completed job needs a result")
	}
	if _, err := uuid.Parse(u.ID); err != nil {
		return perr.NotFoundf("job %s not found", u.ID)
	}

	var res, msg any
	if u.Result != nil {
		b, err := json.Marshal(u.Result)
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeJSON, "encode tier2 result")
		}
		res = string(b)
	}
	if u.To == dom.StateFailed {
		e := u.Error
		if e == "" {
			e = "failed"
		}
		msg = e
	}

	const sql = `
		UPDATE tier2_jobs
		   SET state = $4,
		       result = COALESCE($5::jsonb, result),
		       error = COALESCE($6, error),
		       progress = CASE WHEN $4 = 'completed' THEN 100 ELSE progress END,
		       image = CASE WHEN $4 IN ('completed', 'failed') THEN NULL ELSE image END,
		       finished_at = CASE WHEN $4 IN ('completed', 'failed') THEN now() ELSE finished_at END,
		       leased_by = CASE WHEN $4 IN ('completed', 'failed') THEN NULL ELSE leased_by END,
		       lease_expires_at = CASE WHEN $4 IN ('completed', 'failed') THEN NULL ELSE lease_expires_at END,
		       updated_at = now()
		 WHERE job_id = $1::uuid
		   AND state = $2
		   AND leased_by = $3
		   AND lease_expires_at > now()
	`
	tag, err := s.db.Exec(ctx, sql, u.ID, string(u.From), u.Owner, string(u.To), res, msg)
	if err != nil {
		return perr.FromPostgres(err, "update tier2 job")
	}
	if tag.RowsAffected() == 1 {
		if u.To.Terminal() {
			// retention is best effort here, the worker prunes on its own cadence too
			_, _ = s.Prune(ctx, s.retain)
		}
		return nil
	}

	cur, err := s.binder.Bind(s.db).get(ctx, u.ID)
	if err != nil {
		return err
	}
	return perr.Conflictf("job %s is %s, not %s for %s", u.ID, cur.State, u.From, u.Owner)
}

// Progress records an advisory percentage, it never moves backwards
func (s *Postgres) Progress(ctx context.Context, id, owner string, pct int) error {
	if _, err := uuid.Parse(id); err != nil {
		return perr.NotFoundf("job %s not found", id)
	}
	const sql = `
		UPDATE tier2_jobs
		   SET progress = GREATEST(progress, $3), updated_at = now()
		 WHERE job_id = $1::uuid AND state = 'active' AND leased_by = $2
	`
	tag, err := s.db.Exec(ctx, sql, id, owner, clampPct(pct))
	if err != nil {
		return perr.FromPostgres(err, "update tier2 progress")
	}
	if tag.RowsAffected() == 0 {
		return perr.Conflictf("job %s not active for %s", id, owner)
	}
	return nil
}

// ListPending returns queued and active jobs, oldest first
func (s *Postgres) ListPending(ctx context.Context, limit int) ([]dom.Job, error) {
	if limit <= 0 {
		limit = 1000
	}
	sql := `SELECT ` + jobCols + `
		  FROM tier2_jobs
		 WHERE state IN ('queued', 'active')
		 ORDER BY created_at ASC
		 LIMIT $1`
	rows, err := s.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list pending tier2 jobs")
	}
	defer rows.Close()
	var out []dom.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Prune deletes terminal jobs past r
func (s *Postgres) Prune(ctx context.Context, r dom.Retention) (int, error) {
	if r.Keep <= 0 && r.TTL <= 0 {
		return 0, nil
	}
	var keep, ttl any
	if r.Keep > 0 {
		keep = r.Keep
	}
	if r.TTL > 0 {
		ttl = r.TTL.String()
	}
	const sql = `
		WITH ranked AS (
			SELECT job_id, finished_at,
			       row_number() OVER (ORDER BY finished_at DESC) AS rn
			  FROM tier2_jobs
			 WHERE state IN ('completed', 'failed')
		)
		DELETE FROM tier2_jobs j
		 USING ranked
		 WHERE j.job_id = ranked.job_id
		   AND (($1::int IS NOT NULL AND ranked.rn > $1::int)
		     OR ($2::interval IS NOT NULL AND ranked.finished_at < now() - $2::interval))
	`
	tag, err := s.db.Exec(ctx, sql, keep, ttl)
	if err != nil {
		return 0, perr.FromPostgres(err, "prune tier2 jobs")
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row repokit.Row) (dom.Job, error) {
	var (
		j          dom.Job
		module     string
		state      string
		progress   int16
		lat, lng   *float64
		result     []byte
		leaseUntil *time.Time
	)
	if err := row.Scan(
		&j.ID, &module, &state, &progress, &j.Payload.Image, &j.Payload.ContentType,
		&lat, &lng, &j.Payload.Label, &j.Payload.Category, &result, &j.Error,
		&j.LeasedBy, &leaseUntil, &j.CreatedAt, &j.UpdatedAt, &j.FinishedAt,
	); err != nil {
		return dom.Job{}, err
	}
	j.Module = routing.Module(module)
	j.State = dom.State(state)
	j.Progress = int(progress)
	if lat != nil && lng != nil {
		j.Payload.GPS = &geo.Point{Lat: *lat, Lng: *lng}
	}
	if leaseUntil != nil {
		j.LeaseExpires = *leaseUntil
	}
	if len(result) > 0 {
		var res dom.Result
		if err := json.Unmarshal(result, &res); err != nil {
			return dom.Job{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode tier2 result")
		}
		j.Result = &res
	}
	return j, nil
}
