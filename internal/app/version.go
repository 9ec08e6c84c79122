package app

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, overridden with
// -ldflags "-X github.com/scieloorg/articlemeta/internal/app.Version=1.0.0".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func init() {
	if Version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

// BuildVersion returns a formatted version string for startup logs.
func BuildVersion() string {
	return fmt.Sprintf("articlemeta %s (commit: %s, built: %s)", Version, Commit, BuildTime)
}
