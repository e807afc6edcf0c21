package config

import (
	"slices"
	"testing"
	"time"

	kit "worlddex/internal/platform/testkit"
)

func TestMustString(t *testing.T) {
	t.Setenv("TIER2_PG_URL", "  postgres://localhost/worlddex ")
	c := New().Prefix("TIER2_")

	if got := c.MustString("PG_URL"); got != "postgres://localhost/worlddex" {
		t.Fatalf("MustString = %q", got)
	}
	rec := kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustContain(t, kit.PanicText(rec), "missing required env")
}

func TestMayScalars(t *testing.T) {
	for k, v := range map[string]string{
		"W_CONC":      "8",
		"W_CONC_BAD":  "eight",
		"W_RATIO":     "0.75",
		"W_INPROC":    "true",
		"W_INPROC_X":  "sometimes",
		"W_LEASE":     "90s",
		"W_LEASE_BAD": "ninety",
		"W_NAME":      " tier2 ",
	} {
		t.Setenv(k, v)
	}
	c := New().Prefix("W_")

	if got := c.MayInt("CONC", 1); got != 8 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("CONC_BAD", 1); got != 1 {
		t.Fatalf("bad int should default, got %d", got)
	}
	if got := c.MayFloat64("RATIO", 0); got != 0.75 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if !c.MayBool("INPROC", false) || !c.MayBool("INPROC_X", true) || c.MayBool("NOPE", false) {
		t.Fatalf("MayBool mismatch")
	}
	if got := c.MayDuration("LEASE", time.Minute); got != 90*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("LEASE_BAD", time.Minute); got != time.Minute {
		t.Fatalf("bad duration should default, got %v", got)
	}
	if got := c.MayString("NAME", "x"); got != "tier2" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayString("UNSET", "x"); got != "x" {
		t.Fatalf("MayString default = %q", got)
	}
}

func TestMayCSV(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example,")
	t.Setenv("CORS_EMPTY", " , ")
	def := []string{"*"}

	if got := New().MayCSV("CORS_ORIGINS", def); !slices.Equal(got, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("MayCSV = %v", got)
	}
	if got := New().MayCSV("CORS_EMPTY", def); !slices.Equal(got, def) {
		t.Fatalf("only blanks should default, got %v", got)
	}
	if got := New().MayCSV("CORS_UNSET", def); !slices.Equal(got, def) {
		t.Fatalf("unset should default, got %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	t.Setenv("E_ENGINE", "OpenAI")
	t.Setenv("E_BAD", "claude")
	c := New().Prefix("E_")

	if got := c.MayEnum("ENGINE", "gemini", "gemini", "openai"); got != "openai" {
		t.Fatalf("MayEnum should return the canonical spelling, got %q", got)
	}
	if got := c.MayEnum("UNSET", "gemini", "gemini", "openai"); got != "gemini" {
		t.Fatalf("MayEnum default = %q", got)
	}
	if got := c.MayEnum("UNSET", "", "gemini"); got != "" {
		t.Fatalf("empty default should pass through, got %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "gemini", "gemini", "openai") })
}
