package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariel-frischer/issuelog/internal/cache"
	"github.com/ariel-frischer/issuelog/internal/changelog"
	clierrors "github.com/ariel-frischer/issuelog/internal/errors"
	"github.com/ariel-frischer/issuelog/internal/git"
	"github.com/ariel-frischer/issuelog/internal/github"
	"github.com/ariel-frischer/issuelog/internal/logging"
	"github.com/ariel-frischer/issuelog/internal/output"
	"github.com/ariel-frischer/issuelog/internal/progress"
	"github.com/ariel-frischer/issuelog/internal/reconcile"
	"github.com/ariel-frischer/issuelog/internal/version"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// runGenerate is the root command: resolve settings, run the pipeline,
// render and write the changelog.
func runGenerate(cmd *cobra.Command, o *rootOptions) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}

	logger, runID := logging.WithRunID(logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  cmd.ErrOrStderr(),
		NoColor: color.NoColor,
	}))
	ctx := logging.WithContext(cmd.Context(), logger)
	git.SetDebugLogger(func(format string, args ...any) {
		logger.Debug().Msgf(format, args...)
	})
	defer git.SetDebugLogger(nil)

	settings, err := resolve(cfg, o.since, defaultDetect)
	if err != nil {
		return err
	}

	// Template problems surface before any request is made.
	renderer, err := changelog.LoadRenderer(settings.template, settings.format)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration,
			"invalid changelog template",
			"Check the template syntax (Go text/template with sprig functions)",
		)
	}

	logger.Debug().
		Str("run_id", runID).
		Str("owner", settings.pipeline.Owner).
		Str("repo", settings.pipeline.Repo).
		Time("since", settings.pipeline.Since).
		Bool("merged", settings.pipeline.MergedOnly).
		Str("cache", settings.cachePath).
		Msg("starting run")

	client, err := github.NewClient(ctx, github.Options{
		Credentials: settings.credentials,
		BaseURL:     settings.baseURL,
		UserAgent:   version.UserAgent(),
	})
	if err != nil {
		return clierrors.Wrap(err, clierrors.Configuration, "Check --base-url")
	}

	pipeline := &reconcile.Pipeline{
		Remote: client,
		Cache:  cache.Open(settings.cachePath),
	}

	var rep *progress.Reporter
	if !o.quiet {
		rep = progress.New()
		pipeline.OnPage = rep.Page
		rep.Start(fmt.Sprintf("fetching %s/%s", settings.pipeline.Owner, settings.pipeline.Repo))
	}
	result, err := pipeline.Run(ctx, settings.pipeline)
	if rep != nil {
		rep.Stop(err)
	}
	if err != nil {
		return classifyRunError(err, settings)
	}
	logEvent(logger.Info(), result).Msg("run complete")

	data := changelog.Data{
		Header: settings.header,
		Owner:  settings.pipeline.Owner,
		Repo:   settings.pipeline.Repo,
		Since:  settings.pipeline.Since,
		Items:  result.Items,
	}
	text, err := renderer.RenderString(data)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration,
			"rendering the changelog failed",
			"Check the fields your template references",
		)
	}

	if err := changelog.Write(settings.file, text, cmd.OutOrStdout()); err != nil {
		return clierrors.FileNotWritable(settings.file, err)
	}

	if len(result.Items) == 0 && !o.quiet {
		output.PrintNotice(cmd.ErrOrStderr(), "No closed issues or pull requests since "+
			settings.pipeline.Since.Format("2006-01-02 15:04:05 MST"))
	}
	if settings.file != "" && !o.quiet {
		opts := changelog.SummaryOptions{Plain: color.NoColor}
		if err := changelog.WriteSummary(data, cmd.ErrOrStderr(), opts); err != nil {
			logger.Warn().Err(err).Msg("could not print summary")
		}
	}
	return nil
}

func logEvent(ev *zerolog.Event, r *reconcile.Result) *zerolog.Event {
	return ev.
		Int("items", len(r.Items)).
		Int("events", len(r.Events)).
		Int("cached_events", r.CachedEvents).
		Int("fetched_events", r.FetchedEvents).
		Bool("cache_complete", r.CacheComplete)
}

// classifyRunError attaches a remediation to pipeline failures.
func classifyRunError(err error, s *runSettings) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, github.ErrUnauthorized):
		return clierrors.Unauthorized(err)
	case errors.Is(err, github.ErrRateLimited):
		return clierrors.RateLimited(err)
	case errors.Is(err, github.ErrNotFound):
		return clierrors.RepositoryNotFound(s.pipeline.Owner, s.pipeline.Repo, err)
	default:
		return clierrors.FetchFailed(err)
	}
}
