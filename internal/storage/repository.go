// Package storage persists the domain over SQLite. Every read is scoped to
// the owner and to non-deleted rows; writes that touch budget capacity go
// through single transactions so concurrent readers never observe an expense
// without its capacity decrement or vice versa.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pennywise/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db    *sql.DB
	clock core.Clock
}

func NewRepository(dbPath string, clock core.Clock) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if clock == nil {
		clock = core.SystemClock()
	}

	return &Repository{db: db, clock: clock}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// now returns the clock instant normalized to UTC. Timestamps are stored and
// compared in UTC so that text-encoded values order correctly.
func (r *Repository) now() time.Time {
	return r.clock.Now().UTC()
}

// isUniqueViolation reports whether err is a SQLite unique-index failure.
// modernc.org/sqlite does not export a typed constraint error, so this keys
// off the stable message prefix.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// rollback is a defer-friendly wrapper that ignores the error from rolling
// back an already-committed transaction.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
