// Package version reports the build of the running binary.
package version

import "fmt"

// Overridden at link time: -ldflags "-X .../internal/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String is the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
