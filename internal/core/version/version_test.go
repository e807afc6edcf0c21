package version

import (
	"strings"
	"testing"
)

func TestInfoUnstamped(t *testing.T) {
	bi := Info()
	if bi.Service != "worlddex" || bi.Version != "dev" {
		t.Fatalf("unexpected build info %+v", bi)
	}
	if !strings.HasPrefix(bi.GoVersion, "go") {
		t.Fatalf("go version = %q", bi.GoVersion)
	}
	// test binaries carry no vcs stamp
	if got := String(); got != "worlddex dev (none, unknown)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestFillTrimsRevision(t *testing.T) {
	b := fill(BuildInfo{Commit: "4be1c0d9a7f2e61b88c3"})
	if b.Commit != "4be1c0d9a7f2" || b.Date != "unknown" {
		t.Fatalf("fill = %+v", b)
	}
}
