// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Build metadata, set with -ldflags "-X" at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// VersionString is the one-line build description printed by
// `spool --version`.
func VersionString() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, Sha, Buildtime)
}
