// Package version exposes the build identity stamped into wsbridge
// binaries.
//
// Release builds overwrite the placeholders through the linker:
//
//	go build -ldflags "\
//	  -X github.com/wsbridge/wsbridge/internal/version.Version=$(git describe --tags) \
//	  -X github.com/wsbridge/wsbridge/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/wsbridge/wsbridge/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

// Stamped by the linker; development builds keep the placeholders.
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = ""
)

// String renders the build identity for --version output and startup
// logs. The build time is omitted when it was never stamped.
func String() string {
	s := fmt.Sprintf("%s (%s)", Version, Commit)
	if BuildTime != "" {
		s += " built " + BuildTime
	}
	return s
}
