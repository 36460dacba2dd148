package store

import (
	"fmt"
	"strings"
)

// CheckInsert validates ins independently of any dialect.
func CheckInsert(ins Insert) error {
	if strings.TrimSpace(ins.Table) == "" {
		return fmt.Errorf("store: insert: table must not be empty")
	}
	if len(ins.Columns) == 0 {
		return fmt.Errorf("store: insert into %s: no columns", ins.Table)
	}
	cols := make(map[string]bool, len(ins.Columns))
	for _, c := range ins.Columns {
		cols[c] = true
	}
	keys := make(map[string]bool, len(ins.Key))
	for _, k := range ins.Key {
		if !cols[k] {
			return fmt.Errorf("store: insert into %s: key column %q not inserted", ins.Table, k)
		}
		keys[k] = true
	}
	switch ins.Conflict {
	case ConflictFail:
	case ConflictIgnore:
		if len(ins.Key) == 0 {
			return fmt.Errorf("store: insert into %s: ignoring duplicates needs a key", ins.Table)
		}
	case ConflictUpdate:
		if len(ins.Key) == 0 || len(ins.Update) == 0 {
			return fmt.Errorf("store: insert into %s: merge needs a key and update columns", ins.Table)
		}
		for _, u := range ins.Update {
			if !cols[u] {
				return fmt.Errorf("store: insert into %s: update column %q not inserted", ins.Table, u)
			}
			if keys[u] {
				return fmt.Errorf("store: insert into %s: update column %q is part of the key", ins.Table, u)
			}
		}
	default:
		return fmt.Errorf("store: insert into %s: unknown conflict mode %d", ins.Table, ins.Conflict)
	}
	return nil
}

// QuoteList quotes names with d and joins them with ", ".
func QuoteList(d Dialect, names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = d.QuoteIdent(n)
	}
	return strings.Join(out, ", ")
}

// PlaceholderList returns n bind markers of d, numbered from 1.
func PlaceholderList(d Dialect, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = d.Placeholder(i + 1)
	}
	return strings.Join(out, ", ")
}

// PlainInsert renders INSERT INTO t (cols) VALUES (...).
func PlainInsert(d Dialect, ins Insert) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(ins.Table), QuoteList(d, ins.Columns), PlaceholderList(d, len(ins.Columns)))
}

// OnConflictInsert renders ins with the ON CONFLICT clause shared by
// Postgres and SQLite.
func OnConflictInsert(d Dialect, ins Insert) (string, error) {
	if err := CheckInsert(ins); err != nil {
		return "", err
	}
	q := PlainInsert(d, ins)
	switch ins.Conflict {
	case ConflictIgnore:
		q += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", QuoteList(d, ins.Key))
	case ConflictUpdate:
		sets := make([]string, len(ins.Update))
		for i, c := range ins.Update {
			qc := d.QuoteIdent(c)
			sets[i] = qc + " = EXCLUDED." + qc
		}
		q += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", QuoteList(d, ins.Key), strings.Join(sets, ", "))
	}
	return q, nil
}

// QuoteDouble quotes an identifier with ANSI double quotes.
func QuoteDouble(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
