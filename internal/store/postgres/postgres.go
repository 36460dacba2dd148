// Package postgres implements the "postgres" store backend on pgx v5. It
// runs every statement through a pgxpool connection and a pgx.Tx; there is
// no bulk COPY path because the pipeline writes row by row under a conflict
// policy.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cadu1996/Sparkfy/internal/store"
)

const kind = "postgres"

// DB is a store.DB backed by a pgx pool.
type DB struct {
	pool *pgxpool.Pool
}

var _ store.DB = (*DB)(nil)

func init() {
	store.Register(kind, func(ctx context.Context, cfg store.Config) (store.DB, error) {
		return Open(ctx, cfg.DSN)
	})
	store.Register("postgresql", func(ctx context.Context, cfg store.Config) (store.DB, error) {
		return Open(ctx, cfg.DSN)
	})
}

// Open parses dsn (URL or key=value form), creates a pool and pings it.
func Open(ctx context.Context, dsn string) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, &store.ConnectionError{Kind: kind, Op: "open", Err: errors.New("DSN must not be empty")}
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &store.ConnectionError{Kind: kind, Op: "parse dsn", Err: err}
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, &store.ConnectionError{Kind: kind, Op: "open", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &store.ConnectionError{Kind: kind, Op: "ping", Err: err}
	}
	return &DB{pool: pool}, nil
}

func (d *DB) Dialect() store.Dialect { return Dialect{} }

// Exec runs a statement outside any transaction.
func (d *DB) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := d.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("postgres: exec: %w", classify(err))
	}
	return nil
}

// BeginTx starts a transaction on a pooled connection.
func (d *DB) BeginTx(ctx context.Context) (store.Tx, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, &store.ConnectionError{Kind: kind, Op: "begin", Err: err}
	}
	return &Tx{tx: tx}, nil
}

func (d *DB) Close() error {
	d.pool.Close()
	return nil
}

// Tx is a store.Tx backed by pgx.Tx.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := t.tx.Exec(ctx, query, args...); err != nil {
		return classify(err)
	}
	return nil
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) store.Row {
	return row{r: t.tx.QueryRow(ctx, query, args...)}
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", classify(err))
	}
	return nil
}

// Rollback aborts the transaction; it is a no-op once the transaction is
// closed.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

type row struct{ r pgx.Row }

func (r row) Scan(dest ...any) error {
	err := r.r.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNoRows
	}
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify maps SQLSTATE class 23 (integrity constraint violation) onto
// *store.ConstraintViolationError.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		name := pgErr.ConstraintName
		if name == "" {
			name = pgErr.Code
		}
		return &store.ConstraintViolationError{Constraint: name, Err: err}
	}
	return err
}
