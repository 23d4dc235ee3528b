// Package cli implements the issuelog command line: the root command that
// generates a changelog section, plus cache, config and version
// subcommands.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	clierrors "github.com/ariel-frischer/issuelog/internal/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// rootOptions holds every flag value. Only flags the user actually set
// override the loaded configuration.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
	quiet      bool

	owner       string
	repo        string
	username    string
	password    string
	token       string
	baseURL     string
	labels      []string
	file        string
	since       string
	merged      bool
	header      string
	template    string
	cache       string
	format      string
	mergeCheck  string
	perPage     int
	parallelism int
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// so tests can execute commands without sharing flag state.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "issuelog",
		Short: "Generate a changelog from closed GitHub issues and pull requests",
		Long: `Generate a changelog section from the issues and pull requests closed
since a cutoff.

Issues that were closed by a pull request are annotated with that pull
request ("closed by #N"). With --merged, pull requests closed without
merging are left out.

The cutoff is --since, or the modification time of --file when --since is
omitted. Output goes to stdout, or is prepended to --file.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (ISSUELOG_*, GITHUB_TOKEN)
  3. Project config (.issuelog/config.yml)
  4. User config (~/.config/issuelog/config.yml)
  5. Built-in defaults`,
		Example: `  # Everything closed since a date, printed to stdout
  issuelog -o acme -r widgets -s 2024-01-01

  # Prepend to CHANGELOG.md, using its mtime as the cutoff
  issuelog -r widgets -f CHANGELOG.md

  # Merged pull requests only, with an event cache
  issuelog -r widgets -s 2024-01-01 -m --cache .issuelog/events.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if o.noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, o)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Project config file (default .issuelog/config.yml)")
	pf.StringVar(&o.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&o.logFormat, "log-format", "", "Log format: auto, console, json")
	pf.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	pf.StringVarP(&o.cache, "cache", "c", "", "Event cache file (.yml, or .db/.sqlite for SQLite)")

	f := cmd.Flags()
	f.StringVarP(&o.owner, "owner", "o", "", "Repository owner (default: username, then git origin)")
	f.StringVarP(&o.repo, "repo", "r", "", "Repository name (default: git origin)")
	f.StringVarP(&o.username, "username", "u", "", "GitHub username (only needed for private repos)")
	f.StringVarP(&o.password, "password", "p", "", "GitHub password (requires --username)")
	f.StringVar(&o.token, "token", "", "GitHub access token (default: $GITHUB_TOKEN)")
	f.StringVar(&o.baseURL, "base-url", "", "API base URL for GitHub Enterprise")
	f.StringSliceVarP(&o.labels, "labels", "l", nil, "Only items carrying all of these labels")
	f.StringVarP(&o.file, "file", "f", "", "Changelog to prepend to; its mtime is the cutoff when --since is omitted")
	f.StringVarP(&o.since, "since", "s", "", "Cutoff as RFC 3339 timestamp or YYYY-MM-DD")
	f.BoolVarP(&o.merged, "merged", "m", false, "List merged pull requests only")
	f.StringVarP(&o.header, "header", "e", "", `Header text (default "Changes since <since>")`)
	f.StringVarP(&o.template, "template", "t", "", "Template file (default: bundled Markdown template)")
	f.StringVar(&o.format, "format", "", "Output format: markdown, html")
	f.StringVar(&o.mergeCheck, "merge-check", "", "How --merged decides: events, api")
	f.IntVar(&o.perPage, "per-page", 0, "Page size for API requests (1-100)")
	f.IntVar(&o.parallelism, "parallelism", 0, "Workers for closure attribution")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress progress and the summary")

	cmd.AddCommand(newCacheCmd(o))
	cmd.AddCommand(newConfigCmd(o))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command with interrupt handling and prints any
// error in the structured format. The returned error maps to an exit code
// via ExitCodeFor.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	// A bare ExitError was already reported by the command.
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return err
	}
	clierrors.FprintError(cmd.ErrOrStderr(), err)
	return err
}
