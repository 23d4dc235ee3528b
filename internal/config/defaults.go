package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# issuelog configuration
# See 'issuelog config -h' for commands, 'issuelog config keys' for all options

# Repository
owner: ""                             # Repository owner (default: username, then git origin)
repo: ""                              # Repository name (default: git origin)
base_url: ""                          # API base URL for GitHub Enterprise (empty = github.com)

# Credentials (prefer the GITHUB_TOKEN or ISSUELOG_TOKEN env vars)
username: ""                          # Basic auth user
password: ""                          # Basic auth password (requires username)
token: ""                             # Access token

# Selection
labels: []                            # Only items carrying all of these labels
merged: false                         # Drop pull requests that were closed without merging
merge_check: events                   # How merged status is decided: events | api

# Output
file: ""                              # Changelog to prepend to (its mtime is the default cutoff)
header: ""                            # Heading line (default: "Changes since <since>")
template: ""                          # Custom text/template file (empty = bundled template)
format: markdown                      # markdown | html

# Fetching
cache: ""                             # Event cache (.yml, or .db/.sqlite for SQLite; empty = off)
per_page: 100                         # Page size for API requests (1-100)
parallelism: 4                        # Workers for closure attribution

# Logging
log_level: warn                       # trace | debug | info | warn | error | disabled
log_format: auto                      # auto | console | json
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"base_url":    "",
		"labels":      []string{},
		"merged":      false,
		"merge_check": "events",
		"format":      "markdown",
		"per_page":    100,
		// parallelism only bounds the in-memory attribution step; requests
		// to the remote are always sequential.
		"parallelism": 4,
		"log_level":   "warn",
		"log_format":  "auto",
	}
}
