package cache

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ariel-frischer/issuelog/internal/fsutil"
	"github.com/ariel-frischer/issuelog/internal/tracker"
	"gopkg.in/yaml.v3"
)

// FileStore keeps the snapshot as a YAML document with the events newest
// first. A bare sequence of events, as written by hand, is read as an
// incomplete snapshot.
type FileStore struct {
	path string
}

// NewFileStore returns a YAML-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the cache file path.
func (s *FileStore) Path() string { return s.path }

// Load returns the cached events; see Store.
func (s *FileStore) Load(ctx context.Context) Snapshot {
	return loadOrWarn(ctx, s)
}

// Read parses the cache file. A missing file is an empty snapshot.
func (s *FileStore) Read(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("reading cache file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("parsing cache file %s: %w", s.path, err)
	}
	if len(doc.Content) == 0 {
		return Snapshot{}, nil
	}

	var snap Snapshot
	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&snap.Events)
	} else {
		err = root.Decode(&snap)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing cache file %s: %w", s.path, err)
	}
	return snap, nil
}

// Save overwrites the cache file with snap.
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	if snap.Events == nil {
		snap.Events = []tracker.Event{}
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}
	if err := fsutil.AtomicWrite(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear deletes the cache file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
