// Package logging configures the zerolog logger used across issuelog.
//
// Logs always go to stderr (or the writer passed to New) so that stdout
// stays reserved for the generated changelog. On a terminal the console
// writer is used; elsewhere, or with format "json", events are JSON lines.
//
//	log := logging.New(logging.Options{Level: "debug"})
//	ctx = logging.WithContext(ctx, log)
//	logging.FromContext(ctx).Info().Int("items", n).Msg("fetched items")
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options controls logger construction.
type Options struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	// Unknown or empty values fall back to warn.
	Level string
	// Format is "console", "json" or "" (auto-detect from the writer).
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// Nop discards everything.
var Nop = zerolog.Nop()

// ParseLevel maps a level name to a zerolog level, defaulting to warn.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.WarnLevel
	}
	return lvl
}

// New builds a logger from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if useConsole(opts.Format, out) {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor || os.Getenv("NO_COLOR") != "",
		}
	}

	level := ParseLevel(opts.Level)
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func useConsole(format string, out io.Writer) bool {
	switch format {
	case "json":
		return false
	case "console":
		return true
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WithRunID returns a child logger tagged with a fresh run identifier.
func WithRunID(logger zerolog.Logger) (zerolog.Logger, string) {
	id := uuid.NewString()
	return logger.With().Str("run_id", id).Logger(), id
}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
