package changelog

import (
	_ "embed"
)

//go:embed changelog.md.tmpl
var defaultTemplate string

// DefaultTemplate returns the bundled Markdown template. It renders one
// bullet per item, newest first, with a "closed by" suffix when correlation
// attributed the closure to another item.
func DefaultTemplate() string {
	return defaultTemplate
}
