package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ariel-frischer/issuelog/internal/tracker"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// KindStyle defines the color and icon for an item kind in the summary.
type KindStyle struct {
	Color *color.Color
	Icon  string
}

var (
	issueStyle       = KindStyle{Color: color.New(color.FgYellow), Icon: "●"}
	pullRequestStyle = KindStyle{Color: color.New(color.FgGreen), Icon: "⇡"}
)

// SummaryOptions controls the terminal summary formatting.
type SummaryOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// WriteSummary writes a short overview of the rendered items to w: a count
// line followed by one line per item. Attributed closures are shown with an
// arrow to the item that closed them.
func WriteSummary(data Data, w io.Writer, opts SummaryOptions) error {
	width := resolveWidth(opts.MaxWidth)

	issues, prs := len(data.Issues()), len(data.PullRequests())
	header := fmt.Sprintf("%s/%s: %d issues, %d pull requests since %s",
		data.Owner, data.Repo, issues, prs, data.Since.UTC().Format("2006-01-02"))
	if opts.Plain {
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
	} else {
		bold := color.New(color.Bold).SprintFunc()
		if _, err := fmt.Fprintln(w, bold(header)); err != nil {
			return err
		}
	}

	for _, it := range data.Items {
		if _, err := fmt.Fprintln(w, FormatItemSummary(it, opts, width)); err != nil {
			return err
		}
	}
	return nil
}

// FormatItemSummary returns a one-line summary of an item, truncated to fit
// within width.
func FormatItemSummary(it tracker.Item, opts SummaryOptions, width int) string {
	style := issueStyle
	kind := "issue"
	if it.IsPullRequest {
		style = pullRequestStyle
		kind = "pr"
	}

	suffix := ""
	if it.ClosedBy != nil {
		suffix = fmt.Sprintf(" <- #%d", it.ClosedBy.Number)
	}

	prefix := fmt.Sprintf("  #%d ", it.Number)
	budget := width - len(prefix) - len(suffix) - 2
	title := truncateText(strings.TrimSpace(it.Title), budget)

	if opts.Plain {
		return fmt.Sprintf("  [%s] #%d %s%s", kind, it.Number, title, suffix)
	}

	colored := style.Color.SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	return fmt.Sprintf("%s %s%s%s", colored(style.Icon), colored(fmt.Sprintf("#%d ", it.Number)), title, faint(suffix))
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// truncateText truncates text to maxLen, adding ellipsis if needed.
func truncateText(text string, maxLen int) string {
	if maxLen <= 3 || len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
