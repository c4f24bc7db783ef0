package version

import "fmt"

// Build-time variables injected via -ldflags.
var (
	Version     = "v3.2.0"
	VersionDate = "2024-05-21"
	Commit      = "none"
	Date        = "unknown"
)

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetFullVersion returns a formatted full version string.
func GetFullVersion() string {
	return fmt.Sprintf("%s (%s, commit: %s, built: %s)", Version, VersionDate, Commit, Date)
}
