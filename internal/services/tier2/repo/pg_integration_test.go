//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"worlddex/internal/core/routing"
	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/store"
	dom "worlddex/internal/services/tier2/domain"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
}

func openStore(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{Enabled: true, URL: startPostgres(t), MaxConns: 4},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	if err := Migrate(ctx, st.PG); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run must be a no op
	if err := Migrate(ctx, st.PG); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	return NewPostgres(st.PG, dom.Retention{})
}

func TestPostgres_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	j, err := s.Create(ctx, routing.ModuleSpecies, payload())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if j.State != dom.StateQueued || j.Payload.GPS == nil {
		t.Fatalf("created %+v", j)
	}

	leased, err := s.Lease(ctx, "w1", 10, time.Minute)
	if err != nil || len(leased) != 1 || leased[0].ID != j.ID {
		t.Fatalf("lease = %+v, %v", leased, err)
	}
	if string(leased[0].Payload.Image) != string(payload().Image) {
		t.Fatalf("image not round tripped")
	}
	if again, _ := s.Lease(ctx, "w2", 10, time.Minute); len(again) != 0 {
		t.Fatalf("double lease: %+v", again)
	}

	if err := s.Progress(ctx, j.ID, "w1", 40); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := s.Progress(ctx, j.ID, "w1", 20); err != nil {
		t.Fatalf("progress: %v", err)
	}

	res := dom.Identified("Golden Retriever", "openai-fallback", 0.9)
	err = s.UpdateState(ctx, dom.Update{ID: j.ID, Owner: "w2", From: dom.StateActive, To: dom.StateCompleted, Result: &res})
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("non owner update: %v", err)
	}
	if err := s.UpdateState(ctx, dom.Update{ID: j.ID, Owner: "w1", From: dom.StateActive, To: dom.StateCompleted, Result: &res}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := s.Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != dom.StateCompleted || got.Progress != 100 || got.Payload.Image != nil {
		t.Fatalf("got %+v", got)
	}
	if got.Result == nil || *got.Result.Label != "Golden Retriever" || got.Result.Provider != "openai-fallback" {
		t.Fatalf("result %+v", got.Result)
	}

	if _, err := s.Get(ctx, "not-a-uuid"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("bad id: %v", err)
	}
}

func TestPostgres_ExpiredLeaseFails(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	j, _ := s.Create(ctx, routing.ModuleLandmark, payload())
	if _, err := s.Lease(ctx, "w1", 1, time.Second); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1500 * time.Millisecond)

	if got, _ := s.Lease(ctx, "w2", 1, time.Minute); len(got) != 0 {
		t.Fatalf("expired job re-leased: %+v", got)
	}
	got, _ := s.Get(ctx, j.ID)
	if got.State != dom.StateFailed || got.Error == nil || *got.Error != dom.ErrLeaseExpired {
		t.Fatalf("got %+v", got)
	}
}

func TestPostgres_Prune(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for range 3 {
		j, _ := s.Create(ctx, routing.ModuleSpecies, payload())
		_, _ = s.Lease(ctx, "w1", 1, time.Minute)
		if err := s.UpdateState(ctx, dom.Update{ID: j.ID, Owner: "w1", From: dom.StateActive, To: dom.StateFailed, Error: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = s.Create(ctx, routing.ModuleSpecies, payload())

	n, err := s.Prune(ctx, dom.Retention{Keep: 1})
	if err != nil || n != 2 {
		t.Fatalf("prune = %d, %v", n, err)
	}
	pending, _ := s.ListPending(ctx, 0)
	if len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}
}
