// Package mysql registers the "mysql" store backend on go-sql-driver/mysql.
package mysql

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/store/sqldb"
)

const kind = "mysql"

// openDB is a test hook that points to sqldb.Open by default.
var openDB = sqldb.Open

func init() {
	store.Register(kind, Open)
}

// Open validates the DSN, forces parseTime so DATETIME columns scan into
// time.Time, and opens the pool.
func Open(ctx context.Context, cfg store.Config) (store.DB, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, &store.ConnectionError{Kind: kind, Op: "parse dsn", Err: err}
	}
	db, err := openDB(ctx, kind, "mysql", dsn, Dialect{}, classify)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func normalizeDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	c.ParseTime = true
	return c.FormatDSN(), nil
}

// Server error numbers that mean a constraint rejected the row.
var constraintErrors = map[uint16]bool{
	1048: true, // ER_BAD_NULL_ERROR
	1062: true, // ER_DUP_ENTRY
	1451: true, // ER_ROW_IS_REFERENCED_2
	1452: true, // ER_NO_REFERENCED_ROW_2
}

func classify(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && constraintErrors[me.Number] {
		return &store.ConstraintViolationError{Constraint: strconv.Itoa(int(me.Number)), Err: err}
	}
	return err
}
