package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/store/sqldb"
)

func TestDialect_Insert(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	base := store.Insert{Table: "users", Columns: []string{"user_id", "level"}, Key: []string{"user_id"}}

	tests := []struct {
		name     string
		conflict store.OnConflict
		update   []string
		want     string
	}{
		{"plain", store.ConflictFail, nil,
			`INSERT INTO "users" ("user_id", "level") VALUES (?, ?)`},
		{"ignore", store.ConflictIgnore, nil,
			`INSERT INTO "users" ("user_id", "level") VALUES (?, ?) ON CONFLICT ("user_id") DO NOTHING`},
		{"merge", store.ConflictUpdate, []string{"level"},
			`INSERT INTO "users" ("user_id", "level") VALUES (?, ?) ON CONFLICT ("user_id") DO UPDATE SET "level" = EXCLUDED."level"`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ins := base
			ins.Conflict = tc.conflict
			ins.Update = tc.update
			got, err := d.Insert(ins)
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Insert =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}

func TestDialect_CreateTableAndSelect(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	got, err := d.CreateTable(ddl.TableDef{Name: "time", Columns: []ddl.ColumnDef{
		{Name: "start_time", Kind: ddl.KindTimestamp, PrimaryKey: true},
		{Name: "hour", Kind: ddl.KindInt, Nullable: true},
	}})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"time\" (\n  \"start_time\" TIMESTAMP NOT NULL,\n  \"hour\" INTEGER,\n  PRIMARY KEY (\"start_time\")\n)"
	if got != want {
		t.Fatalf("CreateTable =\n%s\nwant\n%s", got, want)
	}

	if got, want := d.SelectFirst("a", "FROM t"), "SELECT a FROM t LIMIT 1"; got != want {
		t.Fatalf("SelectFirst = %q, want %q", got, want)
	}
}

func openMemory(tb testing.TB) store.DB {
	tb.Helper()
	db, err := store.New(context.Background(), store.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_TxLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`))

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1"))
	require.NoError(t, tx.Rollback(ctx))

	tx, err = db.BeginTx(ctx)
	require.NoError(t, err)
	var v string
	err = tx.QueryRow(ctx, `SELECT v FROM kv WHERE k = ?`, "a").Scan(&v)
	require.ErrorIs(t, err, store.ErrNoRows)

	require.NoError(t, tx.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "b", "2"))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit must be a no-op")

	tx, err = db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	require.NoError(t, tx.QueryRow(ctx, `SELECT v FROM kv WHERE k = ?`, "b").Scan(&v))
	require.Equal(t, "2", v)
}

func TestOpen_ConstraintViolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, db.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NOT NULL)`))
	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, tx.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1"))

	err = tx.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "2")
	var cv *store.ConstraintViolationError
	require.True(t, errors.As(err, &cv), "duplicate key: got %v", err)

	err = tx.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "c", nil)
	require.True(t, errors.As(err, &cv), "null into NOT NULL: got %v", err)
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := store.New(context.Background(), store.Config{Kind: "sqlite"})
	var ce *store.ConnectionError
	require.ErrorAs(t, err, &ce)
}

// TestRegistrationUsesOpenHook verifies the registered factory goes through
// the openDB hook with the configured DSN.
func TestRegistrationUsesOpenHook(t *testing.T) {
	orig := openDB
	defer func() { openDB = orig }()

	var gotDSN, gotDriver string
	openDB = func(ctx context.Context, kind, driver, dsn string, d store.Dialect, c sqldb.Classifier) (*sqldb.DB, error) {
		gotDSN, gotDriver = dsn, driver
		return nil, errors.New("hooked")
	}

	_, err := store.New(context.Background(), store.Config{Kind: "sqlite", DSN: "file:x.db"})
	require.EqualError(t, err, "hooked")
	require.Equal(t, "file:x.db", gotDSN)
	require.Equal(t, "sqlite", gotDriver)
}
