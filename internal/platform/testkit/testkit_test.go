package testkit

import (
	"errors"
	"testing"
)

type recorder struct {
	testing.TB
	failed bool
}

func (r *recorder) Helper()               {}
func (r *recorder) Fatalf(string, ...any) { r.failed = true }

func TestMustPanic(t *testing.T) {
	rec := MustPanic(t, func() { panic("boom") })
	if PanicText(rec) != "boom" {
		t.Fatalf("rec = %v", rec)
	}
	if PanicText(errors.New("wrapped")) != "wrapped" {
		t.Fatalf("error panics should render their message")
	}

	r := &recorder{}
	MustPanic(r, func() {})
	if !r.failed {
		t.Fatalf("no panic should fail the test")
	}
}

func TestMustContain(t *testing.T) {
	MustContain(t, `{"level":"warn","key":"TIER2_CONCURRENCY"}`, `"level":"warn"`, "TIER2_CONCURRENCY")

	r := &recorder{}
	MustContain(r, "tier1", "tier2")
	if !r.failed {
		t.Fatalf("absent needle should fail the test")
	}
}
