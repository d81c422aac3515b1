package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by a Handle after Close.
var ErrClosed = errors.New("database: handle closed")

// Open opens sqlite with sensible defaults.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite, single writer
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

// Handle owns the process-wide connection. It opens lazily on first use and stays open
// until Close.
type Handle struct {
	path string

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewHandle returns a Handle for the database file at path without opening it.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// Path returns the database file path.
func (h *Handle) Path() string { return h.path }

// DB returns the shared connection, opening it on first call.
func (h *Handle) DB() (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.db != nil {
		return h.db, nil
	}
	db, err := Open(h.path)
	if err != nil {
		return nil, err
	}
	h.db = db
	return db, nil
}

// Close releases the connection. Further DB calls fail with ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now returns UTC time truncated to milliseconds, the precision timestamps are stored at.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
