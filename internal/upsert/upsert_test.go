package upsert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/schema"
	"github.com/cadu1996/Sparkfy/internal/store"
	_ "github.com/cadu1996/Sparkfy/internal/store/sqlite"
)

func newStore(tb testing.TB) store.DB {
	tb.Helper()
	ctx := context.Background()
	db, err := store.New(ctx, store.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })
	require.NoError(tb, schema.Ensure(ctx, db))
	return db
}

func relation(tb testing.TB, name string) Relation {
	tb.Helper()
	def, ok := schema.Table(name)
	require.True(tb, ok, "relation %s", name)
	return RelationOf(def)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "reject", want: "reject"},
		{in: " IGNORE ", want: "ignore"},
		{in: "merge:level", want: "merge:level"},
		{in: "merge: level , gender", want: "merge:level,gender"},
		{in: "merge:", wantErr: true},
		{in: "upsert", wantErr: true},
	}
	for _, tc := range tests {
		p, err := ParsePolicy(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePolicy(%q): %v", tc.in, err)
			continue
		}
		if p.String() != tc.want {
			t.Errorf("ParsePolicy(%q) = %s, want %s", tc.in, p, tc.want)
		}
	}
}

func TestPolicies(t *testing.T) {
	t.Parallel()

	ps := DefaultPolicies()
	if got := ps.For(domain.TableUsers).String(); got != "merge:level" {
		t.Fatalf("users policy = %s", got)
	}
	if got := ps.For("unknown").String(); got != "reject" {
		t.Fatalf("fallback policy = %s", got)
	}

	over, err := ps.WithOverrides(map[string]string{domain.TableTime: "reject"})
	if err != nil {
		t.Fatalf("WithOverrides: %v", err)
	}
	if over.For(domain.TableTime).String() != "reject" || ps.For(domain.TableTime).String() != "ignore" {
		t.Fatalf("override not applied to a copy")
	}
	if _, err := ps.WithOverrides(map[string]string{"nope": "ignore"}); err == nil {
		t.Fatalf("expected error for unknown relation")
	}
	if _, err := ps.WithOverrides(map[string]string{domain.TableUsers: "bogus"}); err == nil {
		t.Fatalf("expected error for bad policy")
	}
}

func TestApply_IgnoreDuplicateKeepsFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	e := New(db.Dialect())
	rel := relation(t, domain.TableSongs)

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	first := domain.Song{SongID: "S1", Title: "First", ArtistID: "A1", Year: 2000, Duration: 1}
	second := domain.Song{SongID: "S1", Title: "Second", ArtistID: "A1", Year: 2001, Duration: 2}
	n, err := e.Apply(ctx, tx, rel, IgnoreDuplicate, first.Values(), second.Values())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	var title string
	var count int
	require.NoError(t, tx.QueryRow(ctx, `SELECT COUNT(*) FROM songs`).Scan(&count))
	require.NoError(t, tx.QueryRow(ctx, `SELECT title FROM songs WHERE song_id = ?`, "S1").Scan(&title))
	require.Equal(t, 1, count)
	require.Equal(t, "First", title)
}

func TestApply_MergeOnOverwritesOnlyNamedColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	e := New(db.Dialect())
	rel := relation(t, domain.TableUsers)

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = e.Apply(ctx, tx, rel, MergeOn("level"),
		domain.User{UserID: 7, FirstName: "Ann", Level: "free"}.Values(),
		domain.User{UserID: 7, FirstName: "Changed", Level: "paid"}.Values(),
	)
	require.NoError(t, err)

	var first, level string
	require.NoError(t, tx.QueryRow(ctx, `SELECT first_name, level FROM users WHERE user_id = ?`, 7).Scan(&first, &level))
	require.Equal(t, "Ann", first)
	require.Equal(t, "paid", level)
}

func TestApply_RejectDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	e := New(db.Dialect())
	rel := relation(t, domain.TableArtists)

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	a := domain.Artist{ArtistID: "A1", Name: "Art"}
	n, err := e.Apply(ctx, tx, rel, RejectDuplicate, a.Values(), a.Values())
	require.Equal(t, 1, n)
	var cv *store.ConstraintViolationError
	require.ErrorAs(t, err, &cv)
}

func TestApply_RowShape(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newStore(t)
	e := New(db.Dialect())

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	_, err = e.Apply(ctx, tx, relation(t, domain.TableSongs), IgnoreDuplicate, []any{"S1"})
	require.ErrorContains(t, err, "has 1 values, want 5")

	n, err := e.Apply(ctx, tx, relation(t, domain.TableSongs), IgnoreDuplicate)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStatement_Cached(t *testing.T) {
	t.Parallel()

	e := New(fakeDialect{})
	rel := Relation{Table: "t", Columns: []string{"k", "v"}, Key: []string{"k"}}
	a, err := e.Statement(rel, IgnoreDuplicate)
	require.NoError(t, err)
	b, err := e.Statement(rel, IgnoreDuplicate)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, e.stmts, 1)

	_, err = e.Statement(rel, MergeOn("k"))
	require.Error(t, err, "merging a key column must be rejected")
}

type fakeDialect struct{}

func (fakeDialect) Name() string                  { return "fake" }
func (fakeDialect) Placeholder(int) string        { return "?" }
func (fakeDialect) QuoteIdent(name string) string { return name }
func (fakeDialect) ColumnType(ddl.Kind) string    { return "TEXT" }
func (fakeDialect) CreateTable(ddl.TableDef) (string, error) {
	return "", nil
}
func (d fakeDialect) Insert(ins store.Insert) (string, error) { return store.OnConflictInsert(d, ins) }
func (fakeDialect) SelectFirst(c, r string) string           { return c + r }
