package tracker

import (
	"slices"
	"time"
)

// eventKey identifies an event for deduplication. IDs alone are not unique
// across the remote's namespaces and timestamps collide when two events
// fire in the same second, so both are needed.
type eventKey struct {
	unixNano int64
	id       int64
}

func keyOf(e Event) eventKey {
	return eventKey{unixNano: e.CreatedAt.UnixNano(), id: e.ID}
}

// Normalize deduplicates events on (CreatedAt, ID) and returns them newest
// first, ties broken by descending ID. The input is not modified. When two
// entries share a key the later one in the input wins.
func Normalize(events []Event) []Event {
	byKey := make(map[eventKey]Event, len(events))
	for _, e := range events {
		byKey[keyOf(e)] = e
	}

	out := make([]Event, 0, len(byKey))
	for _, e := range byKey {
		out = append(out, e)
	}
	slices.SortFunc(out, compareNewestFirst)
	return out
}

func compareNewestFirst(a, b Event) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	default:
		return 0
	}
}

// MergeSnapshot combines a cached snapshot with freshly fetched events into
// the next snapshot. It is a pure function: Normalize(snapshot ++ fresh).
func MergeSnapshot(snapshot, fresh []Event) []Event {
	combined := make([]Event, 0, len(snapshot)+len(fresh))
	combined = append(combined, snapshot...)
	combined = append(combined, fresh...)
	return Normalize(combined)
}

// Newest returns the creation time of the most recent event in a
// normalized sequence, or the zero time when it is empty.
func Newest(events []Event) time.Time {
	if len(events) == 0 {
		return time.Time{}
	}
	return events[0].CreatedAt
}

// Oldest returns the creation time of the last event in a normalized
// sequence, or the zero time when it is empty.
func Oldest(events []Event) time.Time {
	if len(events) == 0 {
		return time.Time{}
	}
	return events[len(events)-1].CreatedAt
}

// CorrelationKinds are the event kinds correlation understands.
var CorrelationKinds = []Kind{KindClosed, KindMerged}

// FilterKinds keeps the events whose kind is one of kinds, preserving order.
func FilterKinds(events []Event, kinds ...Kind) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}
