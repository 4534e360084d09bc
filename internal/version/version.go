// Package version exposes build-time version information.
package version

import "fmt"

// Set via -ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns the full version line.
func String() string {
	return fmt.Sprintf("weft %s (commit %s, built %s)", Version, Commit, Date)
}
