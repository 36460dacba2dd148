// Package store defines the narrow relational surface the pipeline runs
// against and a registry of concrete backends.
//
// Backends (postgres, sqlite, mysql, mssql) live in sub-packages and register
// themselves in init. Importing internal/store/all makes every built-in kind
// available to New.
package store

import (
	"context"

	"github.com/cadu1996/Sparkfy/internal/ddl"
)

// Row is the result of a single-row query.
type Row interface {
	// Scan copies the columns of the row into dest. It returns ErrNoRows
	// when the query matched nothing.
	Scan(dest ...any) error
}

// Tx is one unit of work. Every write the pipeline issues for a file goes
// through the same Tx and becomes visible only on Commit.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) Row
	Commit(ctx context.Context) error
	// Rollback discards the transaction. Calling it after Commit is a no-op.
	Rollback(ctx context.Context) error
}

// DB is an open store handle.
type DB interface {
	// BeginTx starts a transaction. Failure to reach the store is reported as
	// a *ConnectionError.
	BeginTx(ctx context.Context) (Tx, error)
	// Exec runs a statement outside any transaction, typically DDL.
	Exec(ctx context.Context, query string) error
	Dialect() Dialect
	Close() error
}

// OnConflict selects what an INSERT does when the key already exists.
type OnConflict int

const (
	// ConflictFail lets the store reject the row.
	ConflictFail OnConflict = iota
	// ConflictIgnore keeps the stored row unchanged.
	ConflictIgnore
	// ConflictUpdate overwrites the Update columns of the stored row.
	ConflictUpdate
)

// Insert describes a single-row parameterized INSERT.
type Insert struct {
	Table   string
	Columns []string
	Key     []string
	// Update lists the columns overwritten under ConflictUpdate.
	Update   []string
	Conflict OnConflict
}

// Dialect renders SQL for one backend. Statements take their arguments
// positionally, in Columns order for inserts.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	QuoteIdent(name string) string
	ColumnType(k ddl.Kind) string
	// CreateTable renders an idempotent CREATE TABLE for t.
	CreateTable(t ddl.TableDef) (string, error)
	// Insert renders ins for this backend's conflict syntax.
	Insert(ins Insert) (string, error)
	// SelectFirst renders "SELECT <columns> <rest>" limited to one row.
	SelectFirst(columns, rest string) string
}
