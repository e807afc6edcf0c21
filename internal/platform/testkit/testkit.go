// Package testkit holds assertions shared by the stdlib-style platform tests
package testkit

import (
	"fmt"
	"strings"
	"testing"
)

// MustPanic fails t unless fn panics, the recovered value is returned for inspection
func MustPanic(t testing.TB, fn func()) (rec any) {
	t.Helper()
	defer func() {
		rec = recover()
		if rec == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
	return nil
}

// MustContain fails t when any needle is absent from haystack
func MustContain(t testing.TB, haystack string, needles ...string) {
	t.Helper()
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			t.Fatalf("missing %q in:\n%s", n, haystack)
		}
	}
}

// PanicText renders a recovered value, zerolog panics with the message string
func PanicText(rec any) string {
	if err, ok := rec.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(rec)
}
