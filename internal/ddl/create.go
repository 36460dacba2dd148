// Package ddl defines a small, backend-agnostic model for the schema DDL and
// a helper that renders the body of a CREATE TABLE statement from it.
//
// Dialect packages (internal/store/postgres, sqlite, mysql, mssql) supply the
// identifier quoting and type mapping, and wrap the body in their own
// CREATE TABLE form (IF NOT EXISTS, or an OBJECT_ID guard on SQL Server).
package ddl

import (
	"fmt"
	"strings"
)

// Renderer is the dialect surface needed to render column definitions.
type Renderer interface {
	QuoteIdent(name string) string
	ColumnType(k Kind) string
}

// BuildColumns renders the column list of t, one entry per column followed by
// an optional PRIMARY KEY clause:
//
//	<quoted name> <SQL type> [NOT NULL]
//	PRIMARY KEY (<pk1>, <pk2>)
//
// It fails when the table has no name, no columns, or a column without a
// name or kind, or when the renderer does not know a kind.
func BuildColumns(t TableDef, r Renderer) ([]string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return nil, fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string

	for _, c := range t.Columns {
		cname := strings.TrimSpace(c.Name)
		if cname == "" {
			return nil, fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		if c.Kind == "" {
			return nil, fmt.Errorf("ddl: column %s missing kind", cname)
		}
		typ := r.ColumnType(c.Kind)
		if typ == "" {
			return nil, fmt.Errorf("ddl: column %s: unsupported kind %q", cname, c.Kind)
		}

		def := r.QuoteIdent(cname) + " " + typ
		if !c.Nullable || c.PrimaryKey {
			def += " NOT NULL"
		}
		cols = append(cols, def)

		if c.PrimaryKey {
			pks = append(pks, r.QuoteIdent(cname))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}
	return cols, nil
}
