package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(tb testing.TB, path, body string) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}

// TestDiscover_RecursiveSorted verifies nested files are found, other
// extensions and directories are ignored, and results are sorted absolute
// paths.
func TestDiscover_RecursiveSorted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "B", "x", "TRBBB.json"), "{}")
	writeFile(t, filepath.Join(root, "A", "TRAAA.json"), "{}")
	writeFile(t, filepath.Join(root, "A", "notes.txt"), "skip")
	if err := os.MkdirAll(filepath.Join(root, "dir.json"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Discover(root, "json")
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(root, "A", "TRAAA.json"),
		filepath.Join(root, "B", "x", "TRBBB.json"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover = %v, want %v", got, want)
	}
}

func TestDiscover_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Discover("", ".json"); err == nil {
		t.Fatalf("expected error for empty root")
	}
	if _, err := Discover(t.TempDir(), ""); err == nil {
		t.Fatalf("expected error for empty extension")
	}
	if _, err := Discover(filepath.Join(t.TempDir(), "missing"), ".json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestDiscoverAll_KeepsRootOrder(t *testing.T) {
	t.Parallel()

	songs := t.TempDir()
	logs := t.TempDir()
	writeFile(t, filepath.Join(songs, "s.json"), "{}")
	writeFile(t, filepath.Join(logs, "2018", "11", "l1.json"), "{}")
	writeFile(t, filepath.Join(logs, "2018", "11", "l2.json"), "{}")

	got, err := DiscoverAll(context.Background(), ".json", songs, logs)
	if err != nil {
		t.Fatalf("DiscoverAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if len(got[0]) != 1 || len(got[1]) != 2 {
		t.Fatalf("counts = %d/%d, want 1/2", len(got[0]), len(got[1]))
	}
}

func TestLocal_Open(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.json")
	writeFile(t, path, `{"a":1}`)

	rc, err := NewLocal(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != `{"a":1}` {
		t.Fatalf("content = %q", b)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(path).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
