package mssql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// Dialect renders SQL Server T-SQL.
type Dialect struct{}

var _ store.Dialect = Dialect{}

func (Dialect) Name() string { return "mssql" }

func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// QuoteIdent brackets an identifier, doubling any closing bracket.
func (Dialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ColumnType maps a logical kind to a SQL Server type.
func (Dialect) ColumnType(k ddl.Kind) string {
	switch k {
	case ddl.KindKey:
		return "NVARCHAR(256)"
	case ddl.KindText:
		return "NVARCHAR(MAX)"
	case ddl.KindInt:
		return "INT"
	case ddl.KindBigInt:
		return "BIGINT"
	case ddl.KindFloat:
		return "FLOAT"
	case ddl.KindTimestamp:
		return "DATETIME2(3)"
	}
	return ""
}

// CreateTable guards the CREATE with OBJECT_ID since T-SQL has no
// CREATE TABLE IF NOT EXISTS.
func (d Dialect) CreateTable(t ddl.TableDef) (string, error) {
	cols, err := ddl.BuildColumns(t, d)
	if err != nil {
		return "", err
	}
	lit := strings.ReplaceAll(t.Name, "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n)",
		lit, d.QuoteIdent(t.Name), strings.Join(cols, ",\n  ")), nil
}

// Insert renders a plain INSERT for ConflictFail and a MERGE with HOLDLOCK
// otherwise, so concurrent loaders cannot both take the NOT MATCHED branch.
func (d Dialect) Insert(ins store.Insert) (string, error) {
	if err := store.CheckInsert(ins); err != nil {
		return "", err
	}
	if ins.Conflict == store.ConflictFail {
		return store.PlainInsert(d, ins), nil
	}

	src := make([]string, len(ins.Columns))
	vals := make([]string, len(ins.Columns))
	for i, c := range ins.Columns {
		qc := d.QuoteIdent(c)
		src[i] = d.Placeholder(i+1) + " AS " + qc
		vals[i] = "src." + qc
	}
	on := make([]string, len(ins.Key))
	for i, k := range ins.Key {
		qk := d.QuoteIdent(k)
		on[i] = "tgt." + qk + " = src." + qk
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s WITH (HOLDLOCK) AS tgt USING (SELECT %s) AS src ON %s",
		d.QuoteIdent(ins.Table), strings.Join(src, ", "), strings.Join(on, " AND "))
	if ins.Conflict == store.ConflictUpdate {
		sets := make([]string, len(ins.Update))
		for i, c := range ins.Update {
			qc := d.QuoteIdent(c)
			sets[i] = "tgt." + qc + " = src." + qc
		}
		fmt.Fprintf(&b, " WHEN MATCHED THEN UPDATE SET %s", strings.Join(sets, ", "))
	}
	fmt.Fprintf(&b, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);",
		store.QuoteList(d, ins.Columns), strings.Join(vals, ", "))
	return b.String(), nil
}

func (Dialect) SelectFirst(columns, rest string) string {
	return "SELECT TOP 1 " + columns + " " + rest
}
