package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cadu1996/Sparkfy/internal/config"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// sandbox points every input and the store at a temporary directory and
// returns the SQLite DSN.
func sandbox(t *testing.T) (songDir, logDir, dsn string) {
	t.Helper()
	root := t.TempDir()
	songDir = filepath.Join(root, "song_data")
	logDir = filepath.Join(root, "log_data")
	require.NoError(t, os.MkdirAll(filepath.Join(songDir, "A", "B"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(logDir, "2018", "11"), 0o755))
	dsn = "file:" + filepath.Join(root, "sparkify.db")

	t.Setenv(config.PathEnvVar, "")
	t.Setenv("SPARKIFY_SOURCE_SONG_DIR", songDir)
	t.Setenv("SPARKIFY_SOURCE_LOG_DIR", logDir)
	t.Setenv("SPARKIFY_STORE_KIND", "sqlite")
	t.Setenv("SPARKIFY_STORE_DSN", dsn)
	t.Setenv("SPARKIFY_METRICS_BACKEND", "none")
	t.Setenv("SPARKIFY_LOG_LEVEL", "warn")
	return songDir, logDir, dsn
}

func TestRun_Validate(t *testing.T) {
	sandbox(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-validate"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "configuration is valid")
}

func TestRun_InvalidConfig(t *testing.T) {
	sandbox(t)
	t.Setenv("SPARKIFY_METRICS_BACKEND", "graphite")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-validate"}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "error: metrics.backend")
	require.Contains(t, stderr.String(), "configuration is invalid")
}

func TestRun_BadFlag(t *testing.T) {
	sandbox(t)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), []string{"-nope"}, &stdout, &stderr))
}

func TestRun_MissingSourceDir(t *testing.T) {
	sandbox(t)
	t.Setenv("SPARKIFY_SOURCE_LOG_DIR", filepath.Join(t.TempDir(), "absent"))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), nil, &stdout, &stderr))
}

func TestRun_LoadsIntoSQLite(t *testing.T) {
	songDir, logDir, dsn := sandbox(t)
	require.NoError(t, os.WriteFile(filepath.Join(songDir, "A", "B", "TRAAA.json"),
		[]byte(`{"num_songs":1,"artist_id":"A1","artist_latitude":null,"artist_longitude":null,"artist_location":"","artist_name":"Art","song_id":"S1","title":"Test","duration":123.45,"year":2000}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "2018", "11", "2018-11-01-events.json"),
		[]byte(`{"artist":"Art","firstName":"Ann","gender":"F","lastName":"Lee","length":123.45,"level":"free","location":"X","page":"NextSong","sessionId":7,"song":"Test","ts":1541121934796,"userAgent":"UA","userId":"10"}`+"\n"+
			`{"artist":null,"firstName":"Ann","gender":"F","lastName":"Lee","length":null,"level":"free","location":"X","page":"Home","sessionId":7,"song":null,"ts":1541121999999,"userAgent":"UA","userId":"10"}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "README.txt"), []byte("not an input"), 0o644))

	var stdout, stderr bytes.Buffer
	for i := 0; i < 2; i++ {
		require.Equal(t, 0, run(context.Background(), []string{"-v"}, &stdout, &stderr), "run %d", i+1)
	}

	ctx := context.Background()
	db, err := store.New(ctx, store.Config{Kind: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer db.Close()
	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	var plays int
	var songID string
	require.NoError(t, tx.QueryRow(ctx, "SELECT COUNT(*), MAX(song_id) FROM songplays").Scan(&plays, &songID))
	require.Equal(t, 1, plays)
	require.Equal(t, "S1", songID)
}
