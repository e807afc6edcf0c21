// Package version reports what binary is running
package version

import (
	"runtime/debug"
	"sync"
)

// stamped with -ldflags "-X worlddex/internal/core/version.version=v1.2.0 ..."
var (
	service = "worlddex"
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo is served on /api/v1/version and printed by worlddexctl
type BuildInfo struct {
	Service   string `json:"service"   example:"worlddex"`
	Version   string `json:"version"   example:"v1.2.0"`
	Commit    string `json:"commit"    example:"4be1c0d"`
	Date      string `json:"date"      example:"2026-10-01T12:00:00Z"`
	GoVersion string `json:"goVersion" example:"go1.25.1"`
}

var info = sync.OnceValue(func() BuildInfo {
	b := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return fill(b)
	}
	b.GoVersion = bi.GoVersion
	// go build stamps vcs data when ldflags did not
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Commit == "":
			b.Commit = s.Value
		case s.Key == "vcs.time" && b.Date == "":
			b.Date = s.Value
		}
	}
	return fill(b)
})

func fill(b BuildInfo) BuildInfo {
	if b.Commit == "" {
		b.Commit = "none"
	} else if len(b.Commit) > 12 {
		b.Commit = b.Commit[:12]
	}
	if b.Date == "" {
		b.Date = "unknown"
	}
	return b
}

func Info() BuildInfo { return info() }

// String is the one line form for CLI output
func String() string {
	b := info()
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}
