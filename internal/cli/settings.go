package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ariel-frischer/issuelog/internal/changelog"
	"github.com/ariel-frischer/issuelog/internal/config"
	clierrors "github.com/ariel-frischer/issuelog/internal/errors"
	"github.com/ariel-frischer/issuelog/internal/git"
	"github.com/ariel-frischer/issuelog/internal/github"
	"github.com/ariel-frischer/issuelog/internal/reconcile"
	"github.com/spf13/cobra"
)

// sinceLayouts are tried in order when parsing --since.
var sinceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// runSettings is everything a generate run needs, resolved and checked
// before any network access.
type runSettings struct {
	pipeline    reconcile.Options
	credentials github.Credentials
	baseURL     string
	file        string
	template    string
	cachePath   string
	format      changelog.Format
	header      string
	logLevel    string
	logFormat   string
}

// detectFunc finds owner and repository from a local checkout.
type detectFunc func(path string) (owner, repo string, err error)

// loadConfig reads the layered configuration and applies flags the user set.
func loadConfig(cmd *cobra.Command, o *rootOptions) (*config.Configuration, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, clierrors.ConfigParseError(err)
	}
	applyFlags(cmd, o, cfg)
	if err := config.ValidateConfigValues(cfg, "flags"); err != nil {
		return nil, clierrors.Wrap(err, clierrors.Argument, "Run 'issuelog --help' for valid values")
	}
	return cfg, nil
}

// applyFlags copies changed flags over cfg.
func applyFlags(cmd *cobra.Command, o *rootOptions, cfg *config.Configuration) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	setString := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}

	setString("owner", &cfg.Owner, o.owner)
	setString("repo", &cfg.Repo, o.repo)
	setString("username", &cfg.Username, o.username)
	setString("password", &cfg.Password, o.password)
	setString("token", &cfg.Token, o.token)
	setString("base-url", &cfg.BaseURL, o.baseURL)
	setString("file", &cfg.File, o.file)
	setString("header", &cfg.Header, o.header)
	setString("template", &cfg.Template, o.template)
	setString("cache", &cfg.Cache, o.cache)
	setString("format", &cfg.Format, o.format)
	setString("merge-check", &cfg.MergeCheck, o.mergeCheck)
	setString("log-level", &cfg.LogLevel, o.logLevel)
	setString("log-format", &cfg.LogFormat, o.logFormat)

	if changed("labels") {
		cfg.Labels = o.labels
	}
	if changed("merged") {
		cfg.Merged = o.merged
	}
	if changed("per-page") {
		cfg.PerPage = o.perPage
	}
	if changed("parallelism") {
		cfg.Parallelism = o.parallelism
	}
}

// resolve performs the run-level checks and derives the cutoff, owner and
// header. It touches the filesystem but never the network.
func resolve(cfg *config.Configuration, since string, detect detectFunc) (*runSettings, error) {
	owner, repo := cfg.Owner, cfg.Repo
	if owner == "" {
		owner = cfg.Username
	}
	var notes []string
	if (repo == "" || owner == "") && detect != nil {
		dOwner, dRepo, err := detect("")
		if err == nil {
			if repo == "" {
				repo = dRepo
			}
			if owner == "" {
				owner = dOwner
			}
		} else {
			notes = append(notes, detectNote(err))
		}
	}
	if repo == "" {
		return nil, clierrors.MissingRepo(notes...)
	}
	if owner == "" {
		return nil, clierrors.MissingOwner(notes...)
	}

	if since == "" && cfg.File == "" {
		return nil, clierrors.MissingCutoff()
	}

	var cutoff time.Time
	if cfg.File != "" {
		info, err := os.Stat(cfg.File)
		if err != nil || info.IsDir() {
			return nil, clierrors.CutoffFileNotFound(cfg.File)
		}
		cutoff = info.ModTime().UTC()
	}
	if since != "" {
		t, err := parseSince(since)
		if err != nil {
			return nil, clierrors.InvalidSince(since)
		}
		cutoff = t
	}

	if cfg.Template != "" {
		if info, err := os.Stat(cfg.Template); err != nil || info.IsDir() {
			return nil, clierrors.TemplateNotFound(cfg.Template)
		}
	}

	if cfg.Password != "" && cfg.Username == "" {
		return nil, clierrors.PasswordWithoutUsername()
	}

	header := cfg.Header
	if header == "" {
		header = changelog.DefaultHeader(cutoff)
	}

	return &runSettings{
		pipeline: reconcile.Options{
			Owner:       owner,
			Repo:        repo,
			Labels:      cfg.Labels,
			Since:       cutoff,
			MergedOnly:  cfg.Merged,
			MergeCheck:  reconcile.MergeCheck(cfg.MergeCheck),
			PerPage:     cfg.PerPage,
			Parallelism: cfg.Parallelism,
		},
		credentials: github.Credentials{
			Token:    cfg.Token,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		baseURL:   cfg.BaseURL,
		file:      cfg.File,
		template:  cfg.Template,
		cachePath: cfg.Cache,
		format:    changelog.Format(cfg.Format),
		header:    header,
		logLevel:  cfg.LogLevel,
		logFormat: cfg.LogFormat,
	}, nil
}

// parseSince accepts RFC 3339 and a few shorter layouts; values without a
// zone are UTC.
func parseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// detectNote turns a detection failure into a remediation line.
func detectNote(err error) string {
	switch {
	case errors.Is(err, git.ErrNotRepository):
		return "The working directory is not a git checkout, so the repository could not be detected"
	case errors.Is(err, git.ErrNoRemote):
		return "The git checkout has no remote to detect the repository from"
	default:
		return "Detecting the repository from git failed: " + err.Error()
	}
}

// defaultDetect reads the origin remote of the checkout in the working directory.
var defaultDetect detectFunc = git.DetectRepository
