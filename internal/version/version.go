// Package version holds build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release of the binary, set by the build system.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the metadata as a single line.
func String() string {
	return fmt.Sprintf("dnegrid %s (commit %s, built %s, %s)", Version, Commit, Date, runtime.Version())
}
