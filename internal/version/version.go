// Package version holds the issuelog build information.
// It has no dependencies so any package can import it.
package version

import "fmt"

// SourceURL is the project home.
const SourceURL = "https://github.com/ariel-frischer/issuelog"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// UserAgent is sent with every API request.
func UserAgent() string {
	return fmt.Sprintf("issuelog/%s (+%s)", Version, SourceURL)
}

// ShortCommit returns the first eight characters of Commit.
func ShortCommit() string {
	if len(Commit) > 8 {
		return Commit[:8]
	}
	return Commit
}
