// Package version exposes gradfetch build metadata.
//
// The variables are set at build time using ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/gradfetch/internal/version.Version=0.3.0 \
//	    -X github.com/jmylchreest/gradfetch/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	Dirty     = "false" // "true" when built from a modified tree
	BuildDate = "unknown"
)

// Info contains structured version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the version, suffixed with -dirty for modified trees.
func String() string {
	if Dirty == "true" {
		return Version + "-dirty"
	}
	return Version
}

// Full returns a multi-line description of the build.
func Full() string {
	info := Get()
	var sb strings.Builder
	fmt.Fprintf(&sb, "gradfetch %s\n", String())
	fmt.Fprintf(&sb, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(&sb, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(&sb, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(&sb, "  OS/Arch:    %s", info.Platform)
	return sb.String()
}
