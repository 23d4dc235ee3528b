package changelog

import (
	"time"

	"github.com/ariel-frischer/issuelog/internal/tracker"
)

// Format is the output document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Data is the value templates are executed against.
type Data struct {
	// Header is the heading line, "Changes since <since>" by default.
	Header string
	Owner  string
	Repo   string
	Since  time.Time
	Items  []tracker.Item
}

// DefaultHeader returns the heading used when none is configured.
func DefaultHeader(since time.Time) string {
	return "Changes since " + since.UTC().Format(time.RFC3339)
}

// Issues returns the plain issues among Items, preserving order.
func (d Data) Issues() []tracker.Item {
	return d.filter(false)
}

// PullRequests returns the pull requests among Items, preserving order.
func (d Data) PullRequests() []tracker.Item {
	return d.filter(true)
}

func (d Data) filter(pullRequests bool) []tracker.Item {
	var out []tracker.Item
	for _, it := range d.Items {
		if it.IsPullRequest == pullRequests {
			out = append(out, it)
		}
	}
	return out
}
