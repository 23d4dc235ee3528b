// Package output provides terminal output formatting utilities for the issuelog CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PrintSuccess prints a colored success message.
// Uses green checkmark and cyan for the message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), cyan(message))
}

// PrintNotice prints a dim informational line.
func PrintNotice(out io.Writer, message string) {
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintln(out, dim(message))
}

// EventRow is one line of the cached events table.
type EventRow struct {
	ID          int64
	Kind        string
	Item        int
	PullRequest bool
	Title       string
	CreatedAt   time.Time
}

// RenderEventsTable writes rows as a rounded table followed by a total line.
func RenderEventsTable(out io.Writer, rows []EventRow) {
	if len(rows) == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprint("No cached events"))
		return
	}

	t := newTable(out)
	t.AppendHeader(header("ID", "KIND", "ITEM", "TITLE", "CREATED"))
	for _, r := range rows {
		item := fmt.Sprintf("#%d", r.Item)
		if r.PullRequest {
			item += " (PR)"
		}
		t.AppendRow(table.Row{r.ID, r.Kind, item, truncate(r.Title, 50), r.CreatedAt.UTC().Format(time.RFC3339)})
	}
	t.Render()

	fmt.Fprintf(out, "\n%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(len(rows)),
		text.FgHiBlue.Sprint("events"))
}

// KeyRow is one line of the configuration keys table.
type KeyRow struct {
	Key         string
	Type        string
	Default     string
	Description string
}

// RenderKeysTable writes the known configuration keys as a table.
func RenderKeysTable(out io.Writer, rows []KeyRow) {
	t := newTable(out)
	t.AppendHeader(header("KEY", "TYPE", "DEFAULT", "DESCRIPTION"))
	for _, r := range rows {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(r.Key), r.Type, r.Default, r.Description})
	}
	t.Render()
}

// newTable creates a new table with standard styling
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(names ...string) table.Row {
	row := make(table.Row, len(names))
	for i, n := range names {
		row[i] = text.FgHiCyan.Sprint(n)
	}
	return row
}

// truncate shortens s to max runes, adding an ellipsis.
func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-1]) + "…"
}
