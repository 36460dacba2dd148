// Package mssql registers the "mssql" store backend on microsoft/go-mssqldb.
package mssql

import (
	"context"
	"errors"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/store/sqldb"
)

const kind = "mssql"

// openDB is a test hook that points to sqldb.Open by default.
var openDB = sqldb.Open

func init() {
	store.Register(kind, Open)
	store.Register("sqlserver", Open)
}

// Open validates the DSN before dialing so obvious mistakes fail fast.
func Open(ctx context.Context, cfg store.Config) (store.DB, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, &store.ConnectionError{Kind: kind, Op: "parse dsn", Err: err}
	}
	db, err := openDB(ctx, kind, "sqlserver", cfg.DSN, Dialect{}, classify)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Server error numbers that mean a constraint rejected the row.
var constraintErrors = map[int32]bool{
	515:  true, // NULL into NOT NULL column
	547:  true, // foreign key or check constraint
	2601: true, // duplicate key in unique index
	2627: true, // primary key or unique constraint
}

func classify(err error) error {
	var me mssql.Error
	if errors.As(err, &me) && constraintErrors[me.Number] {
		return &store.ConstraintViolationError{Constraint: strconv.Itoa(int(me.Number)), Err: err}
	}
	return err
}
