package mysql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/store/sqldb"
)

func TestDialect_Insert(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	ins := store.Insert{Table: "users", Columns: []string{"user_id", "level"}, Key: []string{"user_id"}}

	ins.Conflict = store.ConflictIgnore
	got, err := d.Insert(ins)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if want := "INSERT INTO `users` (`user_id`, `level`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `user_id` = `user_id`"; got != want {
		t.Fatalf("ignore =\n%s\nwant\n%s", got, want)
	}

	ins.Conflict, ins.Update = store.ConflictUpdate, []string{"level"}
	got, err = d.Insert(ins)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if want := "INSERT INTO `users` (`user_id`, `level`) VALUES (?, ?) ON DUPLICATE KEY UPDATE `level` = VALUES(`level`)"; got != want {
		t.Fatalf("merge =\n%s\nwant\n%s", got, want)
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	t.Parallel()

	if got, want := (Dialect{}).QuoteIdent("we`ird"), "`we``ird`"; got != want {
		t.Fatalf("QuoteIdent = %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	var cv *store.ConstraintViolationError
	if !errors.As(classify(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), &cv) {
		t.Fatalf("1062 not classified")
	}
	if cv.Constraint != "1062" {
		t.Fatalf("Constraint = %q", cv.Constraint)
	}
	if errors.As(classify(&mysql.MySQLError{Number: 1064}), &cv) {
		t.Fatalf("syntax error must not be a constraint violation")
	}
}

func TestOpen_ForcesParseTime(t *testing.T) {
	orig := openDB
	defer func() { openDB = orig }()

	var gotDSN string
	openDB = func(ctx context.Context, kind, driver, dsn string, d store.Dialect, c sqldb.Classifier) (*sqldb.DB, error) {
		gotDSN = dsn
		return nil, errors.New("hooked")
	}

	_, err := store.New(context.Background(), store.Config{Kind: "mysql", DSN: "student:student@tcp(127.0.0.1:3306)/sparkifydb"})
	if err == nil || err.Error() != "hooked" {
		t.Fatalf("err = %v, want hooked", err)
	}
	if !strings.Contains(gotDSN, "parseTime=true") {
		t.Fatalf("DSN %q lacks parseTime=true", gotDSN)
	}

	_, err = store.New(context.Background(), store.Config{Kind: "mysql", DSN: "not a dsn"})
	var ce *store.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("bad DSN: err = %v, want ConnectionError", err)
	}
}
