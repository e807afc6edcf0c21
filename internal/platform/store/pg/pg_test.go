package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestOpen_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), Config{URL: "::not a url::"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpen_GivesUpOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// nothing listens on port 1
	_, err := Open(ctx, Config{URL: "postgres://u:p@127.0.0.1:1/db?connect_timeout=1", Attempts: 50})
	if err == nil {
		t.Fatalf("expected failure with nothing listening")
	}
}

func TestTracer_LogsSquashedSQL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))
	tr.OnQuery(context.Background(), QueryEvent{
		SQL:     "SELECT job_id\n\tFROM tier2_jobs\n  WHERE state = $1",
		Args:    []any{"queued"},
		Elapsed: 1.5,
	})

	out := buf.String()
	if !strings.Contains(out, `"sql":"SELECT job_id FROM tier2_jobs WHERE state = $1"`) {
		t.Fatalf("sql not squashed: %s", out)
	}
	if !strings.Contains(out, `"level":"debug"`) {
		t.Fatalf("want debug level even when root is error: %s", out)
	}
}

func TestTracer_SlowAndFailedWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 1", Slow: true})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 1", Err: errors.New("boom")})

	if got := strings.Count(buf.String(), `"level":"warn"`); got != 2 {
		t.Fatalf("want 2 warn lines, got %d: %s", got, buf.String())
	}
}
