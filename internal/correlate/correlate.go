// Package correlate annotates closed items using the repository event stream.
//
// GitHub does not link "this pull request's body said 'fixes #12'" to the
// closing of #12. The only trace is that both closed events carry the same
// timestamp, so Attribute matches on exact timestamp equality. When several
// other items closed in that same instant the first one in event order is
// chosen; with three or more simultaneous closures this can pick the wrong
// item. Callers should treat ClosedBy as a hint, not a fact.
package correlate

import (
	"context"

	"github.com/ariel-frischer/issuelog/internal/tracker"
	"golang.org/x/sync/errgroup"
)

// Attribute sets ClosedBy on every closed plain issue whose closure time
// exactly matches a closed event of a different item. events must already be
// normalized so "first match" is deterministic. Pull requests and items
// without a closure time are left alone.
//
// Items are processed concurrently, at most parallelism at a time (values
// below 1 mean sequential). Each goroutine only writes its own item, so the
// result is the same as a sequential pass.
func Attribute(ctx context.Context, items []tracker.Item, events []tracker.Event, parallelism int) error {
	byNumber := make(map[int]*tracker.Item, len(items))
	for i := range items {
		byNumber[items[i].Number] = &items[i]
	}
	closedAt := indexClosed(events)

	if parallelism < 1 {
		parallelism = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := range items {
		item := &items[i]
		if item.IsPullRequest || !item.IsClosed() {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if ev, ok := simultaneousClose(closedAt, item); ok {
				item.ClosedBy = resolve(byNumber, ev)
			}
			return nil
		})
	}
	return g.Wait()
}

// indexClosed groups closed events by timestamp, keeping event order.
func indexClosed(events []tracker.Event) map[int64][]tracker.Event {
	idx := make(map[int64][]tracker.Event)
	for _, e := range events {
		if e.Kind != tracker.KindClosed {
			continue
		}
		k := e.CreatedAt.UnixNano()
		idx[k] = append(idx[k], e)
	}
	return idx
}

func simultaneousClose(closedAt map[int64][]tracker.Event, item *tracker.Item) (tracker.Event, bool) {
	for _, e := range closedAt[item.ClosedAt.UnixNano()] {
		if e.ItemNumber != item.Number {
			return e, true
		}
	}
	return tracker.Event{}, false
}

// resolve looks the event's item up among the fetched items and falls back
// to the copy carried on the event when it was not fetched (e.g. filtered
// out by labels).
func resolve(byNumber map[int]*tracker.Item, e tracker.Event) *tracker.Item {
	if it, ok := byNumber[e.ItemNumber]; ok {
		return it
	}
	return &tracker.Item{
		Number:        e.ItemNumber,
		Title:         e.ItemTitle,
		IsPullRequest: e.ItemIsPullRequest,
	}
}

// FilterMerged drops pull requests that have no merged event when
// mergedOnly is set. Plain issues always survive. With mergedOnly false the
// input is returned unchanged.
func FilterMerged(items []tracker.Item, events []tracker.Event, mergedOnly bool) []tracker.Item {
	if !mergedOnly {
		return items
	}
	merged := make(map[int]bool)
	for _, e := range events {
		if e.Kind == tracker.KindMerged {
			merged[e.ItemNumber] = true
		}
	}
	return Keep(items, func(it tracker.Item) bool { return merged[it.Number] })
}

// Keep retains every plain issue and the pull requests for which isMerged
// reports true.
func Keep(items []tracker.Item, isMerged func(tracker.Item) bool) []tracker.Item {
	out := make([]tracker.Item, 0, len(items))
	for _, it := range items {
		if !it.IsPullRequest || isMerged(it) {
			out = append(out, it)
		}
	}
	return out
}
