// Package sqlite provides a SQLite-backed implementation of the storage
// interfaces, plus a local order backend for development.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/xquisito/pickandgo/internal/storage"
)

var (
	_ storage.SlotStore        = (*SQLiteStore)(nil)
	_ storage.IdempotencyStore = (*SQLiteStore)(nil)
)

// defaultLease is how long an in-progress idempotency key blocks retries
// before a crashed submission is considered abandoned.
const defaultLease = 2 * time.Minute

// SQLiteStore implements the slot store, the idempotency ledger and the
// local order and transaction backend on one database.
type SQLiteStore struct {
	db    *sql.DB
	now   func() time.Time
	lease time.Duration
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the time source used for TTLs and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// WithLease overrides how long an in-progress idempotency key is honored.
func WithLease(d time.Duration) Option {
	return func(s *SQLiteStore) { s.lease = d }
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now, lease: defaultLease}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}
