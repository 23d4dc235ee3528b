package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/ariel-frischer/issuelog/internal/cache"
	"github.com/ariel-frischer/issuelog/internal/tracker"
)

// fakeRemote serves fixed items and events page by page and records calls.
type fakeRemote struct {
	mu sync.Mutex

	items  []tracker.Item
	events []tracker.Event // newest first
	merged map[int]bool

	failEventsPage int
	failMerge      bool

	itemPages  []int
	eventPages []int
	mergeCalls []int
	inFlight   int
	maxFlight  int
}

func (f *fakeRemote) enter() func() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func page[T any](all []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil
	}
	end := min(start+perPage, len(all))
	return append([]T(nil), all[start:end]...)
}

func (f *fakeRemote) ListClosedItems(_ context.Context, _ tracker.ListItemsOptions, p, perPage int) ([]tracker.Item, error) {
	defer f.enter()()
	f.mu.Lock()
	f.itemPages = append(f.itemPages, p)
	f.mu.Unlock()
	return page(f.items, p, perPage), nil
}

func (f *fakeRemote) ListRepositoryEvents(_ context.Context, _, _ string, p, perPage int) ([]tracker.Event, error) {
	defer f.enter()()
	f.mu.Lock()
	f.eventPages = append(f.eventPages, p)
	f.mu.Unlock()
	if f.failEventsPage == p {
		return nil, errors.New("connection reset")
	}
	return page(f.events, p, perPage), nil
}

func (f *fakeRemote) MergeStatus(_ context.Context, _, _ string, number int) (bool, error) {
	defer f.enter()()
	f.mu.Lock()
	f.mergeCalls = append(f.mergeCalls, number)
	f.mu.Unlock()
	if f.failMerge {
		return false, errors.New("bad gateway")
	}
	return f.merged[number], nil
}

// memStore is an in-memory cache.Store.
type memStore struct {
	snap  cache.Snapshot
	saves int
	saved cache.Snapshot
}

func (m *memStore) Load(context.Context) cache.Snapshot {
	return cache.Snapshot{Events: tracker.Normalize(m.snap.Events), Complete: m.snap.Complete}
}
func (m *memStore) Read(context.Context) (cache.Snapshot, error) { return m.snap, nil }
func (m *memStore) Save(_ context.Context, snap cache.Snapshot) error {
	m.saves++
	m.saved = snap
	m.snap = snap
	return nil
}
func (m *memStore) Clear() error { m.snap = cache.Snapshot{}; return nil }
func (m *memStore) Path() string { return "mem" }
