// Package reconcile runs the changelog pipeline for one repository: fetch
// closed items, bring the event stream up to date (cache + remote), then
// correlate the two.
//
// Stages run strictly one after another and at most one request is in
// flight at a time. The cache is only written after the event stream was
// fetched and normalized in full, so an aborted run leaves the previous
// snapshot untouched.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariel-frischer/issuelog/internal/cache"
	"github.com/ariel-frischer/issuelog/internal/correlate"
	"github.com/ariel-frischer/issuelog/internal/logging"
	"github.com/ariel-frischer/issuelog/internal/paginate"
	"github.com/ariel-frischer/issuelog/internal/tracker"
)

// MergeCheck selects how "merged only" decides whether a pull request
// was merged.
type MergeCheck string

const (
	// MergeCheckEvents looks for a merged event in the event stream.
	MergeCheckEvents MergeCheck = "events"
	// MergeCheckAPI asks the merge-status endpoint once per pull request.
	MergeCheckAPI MergeCheck = "api"
)

// Stage names passed to Pipeline.OnPage.
const (
	StageItems  = "items"
	StageEvents = "events"
)

// Options is the per-run configuration. It is built once by the caller and
// never mutated by the pipeline.
type Options struct {
	Owner  string
	Repo   string
	Labels []string
	// Since is the changelog cutoff; only items updated after it are listed
	// and the event stream is walked back to it.
	Since      time.Time
	MergedOnly bool
	MergeCheck MergeCheck
	// PerPage defaults to paginate.DefaultPerPage.
	PerPage int
	// Parallelism bounds concurrent per-item correlation. Defaults to 1.
	Parallelism int
}

// Validate reports missing identifiers.
func (o Options) Validate() error {
	var errs []error
	if o.Owner == "" {
		errs = append(errs, errors.New("owner is required"))
	}
	if o.Repo == "" {
		errs = append(errs, errors.New("repo is required"))
	}
	switch o.MergeCheck {
	case "", MergeCheckEvents, MergeCheckAPI:
	default:
		errs = append(errs, fmt.Errorf("unknown merge check %q", o.MergeCheck))
	}
	return errors.Join(errs...)
}

// Result is the annotated item collection plus bookkeeping for logs.
type Result struct {
	Items []tracker.Item
	// Events is the normalized, kind-filtered stream used for correlation.
	Events []tracker.Event
	// CachedEvents and FetchedEvents count the snapshot and live parts
	// before deduplication.
	CachedEvents  int
	FetchedEvents int
	// CacheComplete reports whether the saved snapshot holds the whole
	// event history.
	CacheComplete bool
}

// Pipeline wires the collaborators of a run.
type Pipeline struct {
	Remote tracker.Remote
	// Cache defaults to cache.Nop.
	Cache cache.Store
	// OnPage, when set, is told about every page fetched.
	OnPage func(stage string, page, size int)
}

// Run executes the pipeline. Any fetch failure aborts the run; nothing is
// returned and the cache is not written.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if p.Remote == nil {
		return nil, errors.New("reconcile: no remote configured")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	store := p.Cache
	if store == nil {
		store = cache.Nop{}
	}
	log := logging.FromContext(ctx)

	items, err := p.fetchItems(ctx, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Int("items", len(items)).Msg("fetched closed items")

	snapshot := store.Load(ctx)
	fresh, complete, err := p.fetchEvents(ctx, opts, snapshot)
	if err != nil {
		return nil, err
	}
	merged := tracker.MergeSnapshot(snapshot.Events, fresh)
	log.Info().
		Int("cached", len(snapshot.Events)).
		Int("fetched", len(fresh)).
		Int("merged", len(merged)).
		Bool("complete", complete).
		Msg("event stream up to date")

	if err := store.Save(ctx, cache.Snapshot{Events: merged, Complete: complete}); err != nil {
		log.Warn().Err(err).Str("cache", store.Path()).Msg("could not write event cache")
	}

	events := tracker.FilterKinds(merged, tracker.CorrelationKinds...)

	if err := correlate.Attribute(ctx, items, events, opts.Parallelism); err != nil {
		return nil, fmt.Errorf("correlating closures: %w", err)
	}

	items, err = p.filterMerged(ctx, opts, items, events)
	if err != nil {
		return nil, err
	}

	return &Result{
		Items:         items,
		Events:        events,
		CachedEvents:  len(snapshot.Events),
		FetchedEvents: len(fresh),
		CacheComplete: complete,
	}, nil
}

func (p *Pipeline) fetchItems(ctx context.Context, opts Options) ([]tracker.Item, error) {
	query := tracker.ListItemsOptions{
		Owner:  opts.Owner,
		Repo:   opts.Repo,
		Since:  opts.Since,
		Labels: opts.Labels,
	}
	items, err := paginate.Fetch(ctx, paginate.Options[tracker.Item]{
		PerPage: opts.PerPage,
		OnPage:  p.pageHook(StageItems),
	}, func(ctx context.Context, page, perPage int) ([]tracker.Item, error) {
		return p.Remote.ListClosedItems(ctx, query, page, perPage)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching closed items: %w", err)
	}
	return items, nil
}

// fetchEvents walks the event stream newest first. When the snapshot covers
// the window it stops at the snapshot's newest event, so that the merged
// stream stays contiguous; otherwise it stops once events are older than the
// cutoff. complete reports whether the merged stream holds the whole history.
func (p *Pipeline) fetchEvents(ctx context.Context, opts Options, snapshot cache.Snapshot) (events []tracker.Event, complete bool, err error) {
	head, useHead := overlapPoint(snapshot, opts.Since)
	stop := func(last tracker.Event) bool {
		if useHead {
			return !last.CreatedAt.After(head)
		}
		return last.CreatedAt.Before(opts.Since)
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = paginate.DefaultPerPage
	}
	hook := p.pageHook(StageEvents)
	lastSize := perPage
	onPage := func(page, size int) {
		lastSize = size
		if hook != nil {
			hook(page, size)
		}
	}

	events, err = paginate.Fetch(ctx, paginate.Options[tracker.Event]{
		PerPage: perPage,
		Stop:    stop,
		OnPage:  onPage,
	}, func(ctx context.Context, page, perPage int) ([]tracker.Event, error) {
		return p.Remote.ListRepositoryEvents(ctx, opts.Owner, opts.Repo, page, perPage)
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetching issue events: %w", err)
	}

	// A short page is the end of the remote stream.
	exhausted := lastSize < perPage
	return events, exhausted || (useHead && snapshot.Complete), nil
}

// overlapPoint returns the snapshot's newest timestamp when the snapshot
// covers the window: it holds the whole history, or it reaches back to
// since. A snapshot that starts after since (e.g. built by an earlier run
// with a later cutoff) leaves a gap, so the walk must go down to since.
func overlapPoint(snapshot cache.Snapshot, since time.Time) (time.Time, bool) {
	if len(snapshot.Events) == 0 {
		return time.Time{}, false
	}
	if snapshot.Complete {
		return tracker.Newest(snapshot.Events), true
	}
	if since.IsZero() || tracker.Oldest(snapshot.Events).After(since) {
		return time.Time{}, false
	}
	return tracker.Newest(snapshot.Events), true
}

func (p *Pipeline) filterMerged(ctx context.Context, opts Options, items []tracker.Item, events []tracker.Event) ([]tracker.Item, error) {
	if !opts.MergedOnly {
		return items, nil
	}
	if opts.MergeCheck != MergeCheckAPI {
		return correlate.FilterMerged(items, events, true), nil
	}

	merged := make(map[int]bool)
	for _, it := range items {
		if !it.IsPullRequest {
			continue
		}
		ok, err := p.Remote.MergeStatus(ctx, opts.Owner, opts.Repo, it.Number)
		if err != nil {
			return nil, fmt.Errorf("checking merge status: %w", err)
		}
		merged[it.Number] = ok
	}
	return correlate.Keep(items, func(it tracker.Item) bool { return merged[it.Number] }), nil
}

func (p *Pipeline) pageHook(stage string) func(page, size int) {
	if p.OnPage == nil {
		return nil
	}
	return func(page, size int) { p.OnPage(stage, page, size) }
}
