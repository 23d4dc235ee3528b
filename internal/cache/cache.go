// Package cache persists the repository event stream between runs so later
// runs only fetch events newer than the snapshot.
//
// The cache is an optimization, never a source of truth: Load treats a
// missing or unreadable snapshot as empty and logs a warning instead of
// failing the run. Store replaces the whole snapshot and is only called
// after a complete, normalized fetch.
//
// Concurrent runs against the same cache location are not supported.
package cache

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/issuelog/internal/logging"
	"github.com/ariel-frischer/issuelog/internal/tracker"
)

// Snapshot is a persisted slice of the event stream, newest first. The
// events are contiguous: nothing the remote served between the oldest and
// the newest one is missing.
type Snapshot struct {
	// Complete is set once a walk reached the end of the remote stream, so
	// the snapshot holds the whole history up to its newest event.
	Complete bool            `yaml:"complete"`
	Events   []tracker.Event `yaml:"events"`
}

// Store is an event snapshot location.
type Store interface {
	// Load returns the persisted snapshot, or an empty one when there is
	// none or it cannot be read.
	Load(ctx context.Context) Snapshot
	// Save replaces the snapshot.
	Save(ctx context.Context, snap Snapshot) error
	// Read is the strict form of Load used for inspection; it reports
	// parse failures instead of swallowing them.
	Read(ctx context.Context) (Snapshot, error)
	// Clear removes the snapshot.
	Clear() error
	// Path is the backing location, empty for Nop.
	Path() string
}

// Open picks a backend from the path: "" is Nop, *.db / *.sqlite / *.sqlite3
// is SQLite, anything else is a YAML file.
func Open(path string) Store {
	if path == "" {
		return Nop{}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	default:
		return NewFileStore(path)
	}
}

// Nop is used when no cache path is configured.
type Nop struct{}

func (Nop) Load(context.Context) Snapshot { return Snapshot{} }
func (Nop) Save(context.Context, Snapshot) error { return nil }
func (Nop) Read(context.Context) (Snapshot, error) { return Snapshot{}, nil }
func (Nop) Clear() error { return nil }
func (Nop) Path() string { return "" }

// loadOrWarn wraps a strict read with the availability-first policy.
func loadOrWarn(ctx context.Context, s Store) Snapshot {
	snap, err := s.Read(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("cache", s.Path()).
			Msg("ignoring unreadable event cache; fetching full history")
		return Snapshot{}
	}
	logging.FromContext(ctx).Debug().
		Str("cache", s.Path()).
		Int("events", len(snap.Events)).
		Bool("complete", snap.Complete).
		Msg("loaded event cache")
	snap.Events = tracker.Normalize(snap.Events)
	return snap
}
