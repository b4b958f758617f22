// Package buildinfo holds the version of the cheby binary.
//
// Release builds set the variables through ldflags:
//
//	go build -ldflags "-X github.com/chebytools/cheby/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/chebytools/cheby/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/chebytools/cheby/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries installed with `go install` have no ldflags; their module
// version and VCS stamp are read from the embedded build information.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fill(info)
	}
}

// fill replaces the defaults that ldflags left untouched.
func fill(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// Short returns the program name and version, as recorded in generated
// layout documents.
func Short() string {
	return "cheby " + Version
}
