package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// palette holds one formatting function per part of an error report.
type palette struct {
	label    func(a ...any) string
	category func(a ...any) string
	message  func(a ...any) string
	heading  func(a ...any) string
	usage    func(a ...any) string
	bullet   func(a ...any) string
}

var (
	colored = palette{
		label:    color.New(color.FgRed, color.Bold).SprintFunc(),
		category: color.New(color.FgYellow).SprintFunc(),
		message:  color.New(color.FgRed).SprintFunc(),
		heading:  color.New(color.FgGreen, color.Bold).SprintFunc(),
		usage:    color.New(color.FgCyan).SprintFunc(),
		bullet:   color.New(color.FgGreen).SprintFunc(),
	}
	plain = palette{
		label:    fmt.Sprint,
		category: fmt.Sprint,
		message:  fmt.Sprint,
		heading:  fmt.Sprint,
		usage:    fmt.Sprint,
		bullet:   fmt.Sprint,
	}
)

// FormatError renders err for the terminal, colored unless color is off.
func FormatError(err *CLIError) string {
	if color.NoColor {
		return FormatErrorPlain(err)
	}
	return render(err, colored)
}

// FormatErrorPlain renders err without ANSI codes.
func FormatErrorPlain(err *CLIError) string {
	return render(err, plain)
}

// render writes the report:
//
//	Error [Argument Error]: repository name is required
//
//	Usage: issuelog --repo <name> ...
//
//	To fix this:
//	  • Pass --repo ...
func render(err *CLIError, p palette) string {
	if err == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category.String()), p.message(err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s%s\n", p.heading("Usage: "), p.usage(err.Usage))
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", p.heading("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", p.bullet("•"), step)
		}
	}
	return sb.String()
}

// FprintError writes err to w. Errors that are not CLIErrors are reported
// as runtime errors.
func FprintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(Categorize(err)))
}
