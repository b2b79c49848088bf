// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/banshee-data/scoutgrid/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version and startup logs.
func String() string {
	return fmt.Sprintf("scoutgrid %s (%s, built %s)", Version, GitSHA, BuildTime)
}
