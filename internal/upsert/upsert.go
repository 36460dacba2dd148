// Package upsert writes rows into a relation under a per-relation conflict
// policy. It issues one parameterized statement per row inside the caller's
// transaction and never commits.
package upsert

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// Relation names a target table, its ordered columns and its key.
type Relation struct {
	Table   string
	Columns []string
	Key     []string
}

// RelationOf derives a Relation from a table definition.
func RelationOf(t ddl.TableDef) Relation {
	return Relation{Table: t.Name, Columns: t.ColumnNames(), Key: t.KeyNames()}
}

// Executor renders statements for one dialect and caches them per relation
// and policy.
type Executor struct {
	dialect store.Dialect

	mu    sync.Mutex
	stmts map[string]string
}

// New returns an Executor for d.
func New(d store.Dialect) *Executor {
	return &Executor{dialect: d, stmts: map[string]string{}}
}

// Statement returns the SQL that Apply runs for rel under p.
func (e *Executor) Statement(rel Relation, p Policy) (string, error) {
	ck := rel.Table + "\x00" + strings.Join(rel.Columns, ",") + "\x00" + strings.Join(rel.Key, ",") + "\x00" + p.String()

	e.mu.Lock()
	defer e.mu.Unlock()
	if q, ok := e.stmts[ck]; ok {
		return q, nil
	}
	q, err := e.dialect.Insert(store.Insert{
		Table:    rel.Table,
		Columns:  rel.Columns,
		Key:      rel.Key,
		Update:   p.update,
		Conflict: p.conflict,
	})
	if err != nil {
		return "", fmt.Errorf("upsert: %s: %w", rel.Table, err)
	}
	e.stmts[ck] = q
	return q, nil
}

// Apply writes rows into rel in order. Each row holds one value per column
// in rel.Columns order. It returns the number of rows applied, which counts
// every statement that ran, including duplicates IgnoreDuplicate turned into
// no-ops. On error the caller is expected to roll back tx.
func (e *Executor) Apply(ctx context.Context, tx store.Tx, rel Relation, p Policy, rows ...[]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q, err := e.Statement(rel, p)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if len(row) != len(rel.Columns) {
			return i, fmt.Errorf("upsert: %s: row %d has %d values, want %d", rel.Table, i, len(row), len(rel.Columns))
		}
		if err := tx.Exec(ctx, q, row...); err != nil {
			return i, fmt.Errorf("upsert: %s: %w", rel.Table, err)
		}
	}
	return len(rows), nil
}
