// Package sqlite registers the "sqlite" store backend (modernc.org/sqlite,
// pure Go). It serves local runs and the store-backed tests; use a DSN such
// as "file:sparkify.db" or ":memory:".
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/store/sqldb"
)

const kind = "sqlite"

// openDB is a test hook that points to sqldb.Open by default.
var openDB = sqldb.Open

func init() {
	store.Register(kind, Open)
}

// Open opens a SQLite database. The pool is limited to one connection so an
// in-memory database is shared by every statement, and foreign keys are
// enabled.
func Open(ctx context.Context, cfg store.Config) (store.DB, error) {
	db, err := openDB(ctx, kind, "sqlite", cfg.DSN, Dialect{}, classify)
	if err != nil {
		return nil, err
	}
	if raw := db.Raw(); raw != nil {
		raw.SetMaxOpenConns(1)
	}
	if err := db.Exec(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return db, nil
}

// classify turns SQLITE_CONSTRAINT and its extended codes into a
// *store.ConstraintViolationError.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &store.ConstraintViolationError{Constraint: sqlite.ErrorCodeString[se.Code()], Err: err}
	}
	return err
}
