package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Reporter draws a spinner with per-stage page counts. Its Page method has
// the shape of the pipeline's page hook.
type Reporter struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	sp      *spinner.Spinner

	mu     sync.Mutex
	stages []string
	pages  map[string]int
	rows   map[string]int
}

// New returns a Reporter for stderr.
func New() *Reporter {
	caps := DetectTerminalCapabilities()
	r := NewWithCapabilities(os.Stderr, caps)
	if caps.IsTTY {
		r.sp = spinner.New(spinner.CharSets[r.symbols.SpinnerSet], 100*time.Millisecond,
			spinner.WithWriterFile(os.Stderr),
			spinner.WithHiddenCursor(true),
		)
		if caps.SupportsColor {
			_ = r.sp.Color("cyan")
		}
	}
	return r
}

// NewWithCapabilities returns a Reporter that writes its final status line
// to out. It never animates; use New for the interactive spinner.
func NewWithCapabilities(out io.Writer, caps TerminalCapabilities) *Reporter {
	return &Reporter{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
		pages:   make(map[string]int),
		rows:    make(map[string]int),
	}
}

// Start begins animating with msg as the suffix.
func (r *Reporter) Start(msg string) {
	if r.sp == nil {
		return
	}
	r.sp.Suffix = " " + msg
	r.sp.Start()
}

// Page records a fetched page for stage and refreshes the spinner text.
func (r *Reporter) Page(stage string, page, size int) {
	r.mu.Lock()
	if _, ok := r.pages[stage]; !ok {
		r.stages = append(r.stages, stage)
	}
	r.pages[stage] = page
	r.rows[stage] += size
	text := r.describeLocked()
	r.mu.Unlock()

	if r.sp != nil {
		r.sp.Lock()
		r.sp.Suffix = " fetching " + text
		r.sp.Unlock()
	}
}

// Stop halts the spinner and prints a final status line on a terminal.
func (r *Reporter) Stop(err error) {
	if r.sp != nil {
		r.sp.Stop()
	}
	if !r.caps.IsTTY {
		return
	}

	r.mu.Lock()
	text := r.describeLocked()
	r.mu.Unlock()

	symbol, paint := r.symbols.Checkmark, color.New(color.FgGreen).SprintFunc()
	if err != nil {
		symbol, paint = r.symbols.Failure, color.New(color.FgRed).SprintFunc()
	}
	if !r.caps.SupportsColor {
		paint = fmt.Sprint
	}
	msg := "fetched " + text
	if text == "" {
		msg = "nothing fetched"
	}
	fmt.Fprintf(r.out, "%s %s\n", paint(symbol), msg)
}

// Totals returns the number of pages and records seen for stage.
func (r *Reporter) Totals(stage string) (pages, rows int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pages[stage], r.rows[stage]
}

func (r *Reporter) describeLocked() string {
	parts := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		parts = append(parts, fmt.Sprintf("%s: %d (%d pages)", s, r.rows[s], r.pages[s]))
	}
	return strings.Join(parts, ", ")
}
