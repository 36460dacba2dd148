package mysql

import (
	"fmt"
	"strings"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// Dialect renders MySQL SQL.
type Dialect struct{}

var _ store.Dialect = Dialect{}

func (Dialect) Name() string { return "mysql" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) QuoteIdent(name string) string { return "`" + strings.ReplaceAll(name, "`", "``") + "`" }

// ColumnType maps a logical kind to a MySQL type. Keys are VARCHAR because
// TEXT columns cannot be primary keys without a prefix length.
func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindKey:
		return "VARCHAR(255)"
	case ddl.KindText:
		return "TEXT"
	case ddl.KindInt:
		return "INT"
	case ddl.KindBigInt:
		return "BIGINT"
	case ddl.KindFloat:
		return "DOUBLE"
	case ddl.KindTimestamp:
		return "DATETIME(3)"
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

// Insert renders ins with ON DUPLICATE KEY UPDATE. Ignoring a duplicate is a
// self-assignment of the first key column, which unlike INSERT IGNORE does
// not also swallow NOT NULL and foreign key errors.
func (d Dialect) Insert(ins store.Insert) (string, error) {
	if err := store.CheckInsert(ins); err != nil {
		return "", err
	}
	q := store.PlainInsert(d, ins)
	switch ins.Conflict {
	case store.ConflictIgnore:
		k := d.QuoteIdent(ins.Key[0])
		q += " ON DUPLICATE KEY UPDATE " + k + " = " + k
	case store.ConflictUpdate:
		sets := make([]string, len(ins.Update))
		for i, c := range ins.Update {
			qc := d.QuoteIdent(c)
			sets[i] = qc + " = VALUES(" + qc + ")"
		}
		q += " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return q, nil
}

func (Dialect) SelectFirst(columns, rest string) string {
	return "SELECT " + columns + " " + rest + " LIMIT 1"
}
