// Package version provides version information for the binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the current version of the application.
// This is set at build time using -ldflags.
var Version = "dev"

// BuildTime is when the binary was built.
// This is set at build time using -ldflags.
var BuildTime = "unknown"

// String returns the formatted version information. Without ldflags it
// falls back to the VCS revision recorded by the Go toolchain.
func String() string {
	return fmt.Sprintf("boatsearch version %s (built %s)", Version, buildTime())
}

func buildTime() string {
	if BuildTime != "unknown" {
		return BuildTime
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return BuildTime
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.time" && s.Value != "" {
			return s.Value
		}
	}
	return BuildTime
}
