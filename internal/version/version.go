// Package version carries build metadata stamped in with -ldflags.
package version

import "fmt"

// Set with -ldflags "-X github.com/clusterdash/alertd/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String formats the build metadata for --version output
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// UserAgent identifies alertd binaries in outbound HTTP requests
func UserAgent(binary string) string {
	return binary + "/" + Version
}
