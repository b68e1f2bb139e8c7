// Package store is the console's durable ledger: shifts, events, the sync
// outbox, the cached roster, HR notices and small settings, all in SQLite.
//
// Read and single-row write helpers live on Queries so they can run either
// directly against the pool or inside a transaction opened with WithTx.
// Operations that must touch several tables atomically (appending an event
// together with its outbox row, marking an outbox row sent) are methods on
// Store and open their own transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/losnotables/opsconsole/internal/apperr"
)

// timeLayout is fixed-width so that lexical order in SQLite equals
// chronological order. Every stored timestamp is UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Queries holds the per-table helpers.
type Queries struct {
	q querier
}

// Store owns the database handle.
type Store struct {
	Queries
	db *sql.DB
}

// New wraps an opened, migrated database.
func New(db *sql.DB) *Store {
	return &Store{Queries: Queries{q: db}, db: db}
}

// DB exposes the underlying pool, mainly for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a transaction. Any error returned by fn rolls the
// transaction back and is returned unchanged (wrapped as a storage error if
// it is not already one of the apperr kinds).
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage("begin", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Storage("commit", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows onto apperr.ErrNotFound and anything else
// onto a storage error.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return apperr.Storage(op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
