// Package buildinfo carries version metadata stamped in with -ldflags -X.
package buildinfo

import "fmt"

// Stamped at build time; the defaults identify a local build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build metadata for --version and the health endpoint.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
