package ddl

// Kind is a logical column type. Each store dialect maps a Kind onto its own
// SQL type (see store.Dialect.ColumnType).
type Kind string

const (
	KindKey       Kind = "key"       // short string used as a key or join column
	KindText      Kind = "text"      // free text
	KindInt       Kind = "int"       // 32-bit integer
	KindBigInt    Kind = "bigint"    // 64-bit integer
	KindFloat     Kind = "float"     // double precision
	KindTimestamp Kind = "timestamp" // timestamp without zone, millisecond precision
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind: logical type, mapped per dialect
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Kind       Kind
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name and an ordered list of columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnNames returns the column names of t in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// KeyNames returns the primary-key column names of t in declaration order.
func (t TableDef) KeyNames() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}
