package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/ariel-frischer/issuelog/internal/cache"
	"github.com/ariel-frischer/issuelog/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	since = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	T     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func tp(t time.Time) *time.Time { return &t }

// scenario: issue #10 and PR #11 close at T (PR merged at T), PR #12 was
// closed without merging an hour later.
func scenario() *fakeRemote {
	return &fakeRemote{
		items: []tracker.Item{
			{Number: 12, Title: "Experiment", IsPullRequest: true, ClosedAt: tp(T.Add(time.Hour))},
			{Number: 11, Title: "Fix crash", IsPullRequest: true, ClosedAt: tp(T)},
			{Number: 10, Title: "Crash on start", ClosedAt: tp(T)},
		},
		events: []tracker.Event{
			{ID: 104, Kind: tracker.KindClosed, CreatedAt: T.Add(time.Hour), ItemNumber: 12, ItemIsPullRequest: true},
			{ID: 103, Kind: "referenced", CreatedAt: T.Add(time.Minute), ItemNumber: 10},
			{ID: 102, Kind: tracker.KindMerged, CreatedAt: T, ItemNumber: 11, ItemIsPullRequest: true},
			{ID: 101, Kind: tracker.KindClosed, CreatedAt: T, ItemNumber: 11, ItemIsPullRequest: true},
			{ID: 100, Kind: tracker.KindClosed, CreatedAt: T, ItemNumber: 10},
		},
		merged: map[int]bool{11: true},
	}
}

func numbers(items []tracker.Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Number
	}
	return out
}

func find(items []tracker.Item, n int) *tracker.Item {
	for i := range items {
		if items[i].Number == n {
			return &items[i]
		}
	}
	return nil
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts Options
		want []int
	}{
		"all closed items": {
			opts: Options{Owner: "acme", Repo: "widgets", Since: since},
			want: []int{12, 11, 10},
		},
		"merged only via events": {
			opts: Options{Owner: "acme", Repo: "widgets", Since: since, MergedOnly: true},
			want: []int{11, 10},
		},
		"merged only via api": {
			opts: Options{Owner: "acme", Repo: "widgets", Since: since, MergedOnly: true, MergeCheck: MergeCheckAPI},
			want: []int{11, 10},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			remote := scenario()
			p := &Pipeline{Remote: remote}
			res, err := p.Run(context.Background(), tc.opts)
			require.NoError(t, err)

			assert.Equal(t, tc.want, numbers(res.Items))

			issue := find(res.Items, 10)
			require.NotNil(t, issue)
			require.NotNil(t, issue.ClosedBy, "issue closed in the same instant as #11")
			assert.Equal(t, 11, issue.ClosedBy.Number)
			assert.Nil(t, find(res.Items, 11).ClosedBy)

			for _, e := range res.Events {
				assert.Contains(t, tracker.CorrelationKinds, e.Kind)
			}
		})
	}
}

func TestRun_MergeCheckAPIOnlyAsksAboutPullRequests(t *testing.T) {
	t.Parallel()

	remote := scenario()
	p := &Pipeline{Remote: remote}
	_, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, MergedOnly: true, MergeCheck: MergeCheckAPI})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{11, 12}, remote.mergeCalls)
}

func TestRun_MergeCheckAPIFailureAborts(t *testing.T) {
	t.Parallel()

	remote := scenario()
	remote.failMerge = true
	p := &Pipeline{Remote: remote}
	res, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, MergedOnly: true, MergeCheck: MergeCheckAPI})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "checking merge status")
}

func TestRun_SequentialRequests(t *testing.T) {
	t.Parallel()

	remote := scenario()
	p := &Pipeline{Remote: remote}
	_, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 1, Parallelism: 8, MergedOnly: true, MergeCheck: MergeCheckAPI})
	require.NoError(t, err)

	assert.Equal(t, 1, remote.maxFlight)
	assert.Equal(t, []int{1, 2, 3, 4}, remote.itemPages)
}

func TestRun_EventWalkStopsAtSince(t *testing.T) {
	t.Parallel()

	remote := scenario()
	// Append older history that must not be requested.
	for i := range 10 {
		remote.events = append(remote.events, tracker.Event{
			ID: int64(90 - i), Kind: tracker.KindClosed, CreatedAt: since.Add(-time.Duration(i+1) * time.Hour), ItemNumber: 1,
		})
	}

	p := &Pipeline{Remote: remote}
	_, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2})
	require.NoError(t, err)

	// Pages: [104,103] [102,101] [100,90] -> last (90) is before since.
	assert.Equal(t, []int{1, 2, 3}, remote.eventPages)
}

func TestRun_CacheShortensWalkAndIsRewritten(t *testing.T) {
	t.Parallel()

	remote := scenario()
	// Snapshot holds everything up to T and reaches back past since.
	cached := append([]tracker.Event(nil), remote.events[2:]...)
	cached = append(cached, tracker.Event{ID: 1, Kind: tracker.KindClosed, CreatedAt: since.Add(-time.Hour), ItemNumber: 1})
	store := &memStore{snap: cache.Snapshot{Events: cached}}

	p := &Pipeline{Remote: remote, Cache: store}
	res, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2})
	require.NoError(t, err)

	// Page 1 = [104,103]; page 2 = [102,101] reaches the snapshot head (T).
	assert.Equal(t, []int{1, 2}, remote.eventPages)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.saved.Events, 6, "5 remote events + 1 older cached, deduplicated")
	assert.False(t, store.saved.Complete)
	assert.Equal(t, 4, res.CachedEvents)
	assert.Equal(t, 4, res.FetchedEvents)
	require.NotNil(t, find(res.Items, 10).ClosedBy)
}

func TestRun_SnapshotNotCoveringSinceIsNotTrusted(t *testing.T) {
	t.Parallel()

	remote := scenario()
	// Oldest cached event is T, after since.
	store := &memStore{snap: cache.Snapshot{Events: append([]tracker.Event(nil), remote.events[2:]...)}}

	p := &Pipeline{Remote: remote, Cache: store}
	_, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2})
	require.NoError(t, err)

	// Walk continues past the snapshot head down to the short page.
	assert.Equal(t, []int{1, 2, 3}, remote.eventPages)
}

func TestRun_CompleteSnapshotIsReused(t *testing.T) {
	t.Parallel()

	remote := scenario()
	store := &memStore{}
	p := &Pipeline{Remote: remote, Cache: store}
	opts := Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2}

	first, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	// Every event is after since; the walk ends on the short page 3.
	assert.Equal(t, []int{1, 2, 3}, remote.eventPages)
	assert.True(t, first.CacheComplete)
	assert.True(t, store.saved.Complete)
	require.Len(t, store.saved.Events, 5)

	remote.eventPages = nil
	second, err := p.Run(context.Background(), opts)
	require.NoError(t, err)

	// Page 1 already reaches the snapshot head.
	assert.Equal(t, []int{1}, remote.eventPages)
	assert.True(t, second.CacheComplete)
	assert.Len(t, store.saved.Events, 5)
	assert.Equal(t, numbers(first.Items), numbers(second.Items))
	require.NotNil(t, find(second.Items, 10).ClosedBy)
}

func TestRun_CompleteSnapshotPicksUpNewEvents(t *testing.T) {
	t.Parallel()

	remote := scenario()
	store := &memStore{snap: cache.Snapshot{
		Events:   append([]tracker.Event(nil), remote.events[2:]...),
		Complete: true,
	}}
	p := &Pipeline{Remote: remote, Cache: store}

	res, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2})
	require.NoError(t, err)

	// Page 2 ends at T, the snapshot head; page 3 is never requested.
	assert.Equal(t, []int{1, 2}, remote.eventPages)
	assert.True(t, res.CacheComplete)
	assert.Len(t, store.saved.Events, 5)
}

func TestRun_WalkStoppedAtSinceIsIncomplete(t *testing.T) {
	t.Parallel()

	remote := scenario()
	remote.events = append(remote.events,
		tracker.Event{ID: 91, Kind: tracker.KindClosed, CreatedAt: since.Add(-time.Hour), ItemNumber: 1},
		tracker.Event{ID: 90, Kind: tracker.KindClosed, CreatedAt: since.Add(-2 * time.Hour), ItemNumber: 1},
	)
	store := &memStore{}
	p := &Pipeline{Remote: remote, Cache: store}

	res, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2})
	require.NoError(t, err)

	// Pages: [104,103] [102,101] [100,91] -> 91 is before since.
	assert.Equal(t, []int{1, 2, 3}, remote.eventPages)
	assert.False(t, res.CacheComplete)
	assert.False(t, store.saved.Complete)
}

func TestRun_FetchFailureDoesNotWriteCache(t *testing.T) {
	t.Parallel()

	remote := scenario()
	remote.failEventsPage = 2
	store := &memStore{}

	p := &Pipeline{Remote: remote, Cache: store}
	res, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since, PerPage: 2})

	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "fetching issue events")
	assert.Zero(t, store.saves)
}

func TestRun_OnPage(t *testing.T) {
	t.Parallel()

	var stages []string
	p := &Pipeline{
		Remote: scenario(),
		OnPage: func(stage string, _, _ int) { stages = append(stages, stage) },
	}
	_, err := p.Run(context.Background(), Options{Owner: "acme", Repo: "widgets", Since: since})
	require.NoError(t, err)

	assert.Equal(t, []string{StageItems, StageEvents}, stages)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts    Options
		wantErr []string
	}{
		"valid":          {opts: Options{Owner: "a", Repo: "b"}},
		"missing owner":  {opts: Options{Repo: "b"}, wantErr: []string{"owner is required"}},
		"missing both":   {opts: Options{}, wantErr: []string{"owner is required", "repo is required"}},
		"bad mergecheck": {opts: Options{Owner: "a", Repo: "b", MergeCheck: "guess"}, wantErr: []string{`unknown merge check "guess"`}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tc.opts.Validate()
			if len(tc.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, msg := range tc.wantErr {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestRun_NoRemote(t *testing.T) {
	t.Parallel()

	_, err := (&Pipeline{}).Run(context.Background(), Options{Owner: "a", Repo: "b"})
	require.Error(t, err)
}
