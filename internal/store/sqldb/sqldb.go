// Package sqldb adapts a database/sql handle to store.DB. The sqlite, mysql
// and mssql backends share it and differ only in driver name, dialect, and
// how driver errors are classified.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cadu1996/Sparkfy/internal/store"
)

// Classifier maps a driver error onto the store error types. It returns err
// unchanged when the error has no store meaning.
type Classifier func(err error) error

// sqlDBCore is the subset of *sql.DB the adapter uses.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// DB is a store.DB backed by database/sql.
type DB struct {
	db       sqlDBCore
	kind     string
	dialect  store.Dialect
	classify Classifier
}

var _ store.DB = (*DB)(nil)

// Open opens driver with dsn and pings it. Any failure is a
// *store.ConnectionError.
func Open(ctx context.Context, kind, driver, dsn string, d store.Dialect, classify Classifier) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, &store.ConnectionError{Kind: kind, Op: "open", Err: errors.New("DSN must not be empty")}
	}
	raw, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &store.ConnectionError{Kind: kind, Op: "open", Err: err}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := raw.PingContext(pingCtx); err != nil {
		_ = raw.Close()
		return nil, &store.ConnectionError{Kind: kind, Op: "ping", Err: err}
	}
	return Wrap(raw, kind, d, classify), nil
}

// Wrap adapts an already opened *sql.DB.
func Wrap(raw *sql.DB, kind string, d store.Dialect, classify Classifier) *DB {
	if classify == nil {
		classify = func(err error) error { return err }
	}
	return &DB{db: raw, kind: kind, dialect: d, classify: classify}
}

// Raw exposes the underlying *sql.DB for driver-specific setup.
func (s *DB) Raw() *sql.DB {
	if r, ok := s.db.(*sql.DB); ok {
		return r
	}
	return nil
}

func (s *DB) Dialect() store.Dialect { return s.dialect }

// Exec runs a statement outside any transaction.
func (s *DB) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: exec: %w", s.kind, s.classify(err))
	}
	return nil
}

// BeginTx starts a transaction.
func (s *DB) BeginTx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &store.ConnectionError{Kind: s.kind, Op: "begin", Err: err}
	}
	return &Tx{tx: tx, kind: s.kind, classify: s.classify}, nil
}

func (s *DB) Close() error { return s.db.Close() }

// Tx is a store.Tx backed by *sql.Tx.
type Tx struct {
	tx       *sql.Tx
	kind     string
	classify Classifier
}

// Exec executes one statement in the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return t.classify(err)
	}
	return nil
}

// QueryRow runs a query expected to return at most one row.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) store.Row {
	return row{r: t.tx.QueryRowContext(ctx, query, args...), classify: t.classify}
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", t.kind, t.classify(err))
	}
	return nil
}

// Rollback aborts the transaction; it is a no-op once the transaction is done.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%s: rollback: %w", t.kind, err)
	}
	return nil
}

type row struct {
	r        *sql.Row
	classify Classifier
}

func (r row) Scan(dest ...any) error {
	err := r.r.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNoRows
	}
	if err != nil {
		return r.classify(err)
	}
	return nil
}
