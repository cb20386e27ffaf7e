package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrUnavailable marks failures where the backing storage cannot be reached
// or opened. Callers treat it as run-fatal.
var ErrUnavailable = errors.New("fingerprint store unavailable")

// Store is the durable fingerprint -> DedupeRecord map. It is the only
// mutable state shared between pipeline workers and across runs.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open opens (creating if needed) the dedupe database under dir and takes a
// shared advisory lock on it. Concurrent runs hold the shared lock together;
// maintenance operations (rebuild resets) upgrade to exclusive.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, "dedupe.db")

	// modernc sqlite DSN: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}

	// sqlite wants a single writer
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	lk := flock.New(path + ".lock")
	if err := lk.RLock(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: lock: %v", ErrUnavailable, err)
	}

	s := &Store{db: db, lock: lk}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}
	return s, nil
}

// ExclusiveLock upgrades the advisory lock for maintenance. It fails fast if
// another process holds the shared lock, so a rebuild never races an active
// run.
func (s *Store) ExclusiveLock() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release shared lock: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("exclusive lock: %w", err)
	}
	if !ok {
		return errors.New("store is in use by another run")
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS dedupe_records (
  fingerprint TEXT PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'pending',
  post_id INTEGER NOT NULL DEFAULT 0,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  last_attempt TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_dedupe_status
ON dedupe_records(status);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}
