package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// Dialect renders PostgreSQL SQL.
type Dialect struct{}

var _ store.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) QuoteIdent(name string) string { return store.QuoteDouble(name) }

// ColumnType maps a logical kind to a PostgreSQL type:
//
//	key, text  -> TEXT
//	int        -> INTEGER
//	bigint     -> BIGINT
//	float      -> DOUBLE PRECISION
//	timestamp  -> TIMESTAMP
func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindKey, ddl.KindText:
		return "TEXT"
	case ddl.KindInt:
		return "INTEGER"
	case ddl.KindBigInt:
		return "BIGINT"
	case ddl.KindFloat:
		return "DOUBLE PRECISION"
	case ddl.KindTimestamp:
		return "TIMESTAMP"
	}
	return ""
}

func (d Dialect) CreateTable(t ddl.TableDef) (string, error) {
	cols, err := ddl.BuildColumns(t, d)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		d.QuoteIdent(t.Name), strings.Join(cols, ",\n  ")), nil
}

func (d Dialect) Insert(ins store.Insert) (string, error) {
	return store.OnConflictInsert(d, ins)
}

func (Dialect) SelectFirst(columns, rest string) string {
	return "SELECT " + columns + " " + rest + " LIMIT 1"
}
