package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/issuelog/internal/tracker"
	_ "modernc.org/sqlite"
)

// schemaVersion is the latest SQLite schema version. Bump it when adding
// migrations.
const schemaVersion = 2

// SQLiteStore keeps the snapshot in a single-table SQLite database. It is
// handy for repositories with very long event histories where re-parsing a
// YAML file on every run gets slow.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore returns a SQLite-backed store at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// Load returns the cached events; see Store.
func (s *SQLiteStore) Load(ctx context.Context) Snapshot {
	return loadOrWarn(ctx, s)
}

// Read returns the cached snapshot. A missing database is an empty snapshot
// and is not created.
func (s *SQLiteStore) Read(ctx context.Context) (Snapshot, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}

	db, err := s.open(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	defer db.Close()

	events, err := readEvents(ctx, db)
	if err != nil {
		return Snapshot{}, err
	}

	var complete int
	err = db.QueryRowContext(ctx, `SELECT complete FROM snapshot WHERE id = 1`).Scan(&complete)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("reading cache coverage: %w", err)
	}
	return Snapshot{Events: events, Complete: complete != 0}, nil
}

func readEvents(ctx context.Context, db *sql.DB) ([]tracker.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, kind, created_at, item, item_title, item_is_pull_request
		FROM events
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying cached events: %w", err)
	}
	defer rows.Close()

	var events []tracker.Event
	for rows.Next() {
		var (
			e         tracker.Event
			kind      string
			createdAt int64
			isPR      int
		)
		if err := rows.Scan(&e.ID, &kind, &createdAt, &e.ItemNumber, &e.ItemTitle, &isPR); err != nil {
			return nil, fmt.Errorf("scanning cached event: %w", err)
		}
		e.Kind = tracker.Kind(kind)
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		e.ItemIsPullRequest = isPR != 0
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cached events: %w", err)
	}
	return events, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cache transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clearing cached events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO events (id, kind, created_at, item, item_title, item_is_pull_request)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range snap.Events {
		isPR := 0
		if e.ItemIsPullRequest {
			isPR = 1
		}
		if _, err := stmt.ExecContext(ctx, e.ID, string(e.Kind), e.CreatedAt.UnixNano(), e.ItemNumber, e.ItemTitle, isPR); err != nil {
			return fmt.Errorf("inserting event %d: %w", e.ID, err)
		}
	}

	complete := 0
	if snap.Complete {
		complete = 1
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO snapshot (id, complete) VALUES (1, ?)`, complete); err != nil {
		return fmt.Errorf("writing cache coverage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cached events: %w", err)
	}
	return nil
}

// Clear removes the database and its WAL side files.
func (s *SQLiteStore) Clear() error {
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	dsn := s.path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("reading cache schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS events (
		  id                   INTEGER NOT NULL,
		  kind                 TEXT NOT NULL,
		  created_at           INTEGER NOT NULL,
		  item                 INTEGER NOT NULL,
		  item_title           TEXT NOT NULL DEFAULT '',
		  item_is_pull_request INTEGER NOT NULL DEFAULT 0,
		  PRIMARY KEY (created_at, id)
		);`
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("cache migration 1 failed: %w", err)
		}
	}

	if version < 2 {
		schema := `
		CREATE TABLE IF NOT EXISTS snapshot (
		  id       INTEGER PRIMARY KEY CHECK (id = 1),
		  complete INTEGER NOT NULL DEFAULT 0
		);`
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("cache migration 2 failed: %w", err)
		}
	}

	if version < schemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
			return fmt.Errorf("setting cache schema version: %w", err)
		}
	}
	return nil
}
