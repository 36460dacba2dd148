// Command sparkify-etl loads the Sparkify song catalog and event logs into
// the star schema: songs, artists, users, time and songplays.
//
// Usage:
//
//	sparkify-etl [-config sparkify.yaml] [-validate] [-v]
//
// Settings come from built-in defaults, the optional YAML file (or the file
// named by SPARKIFY_CONFIG), then SPARKIFY_* environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cadu1996/Sparkfy/internal/config"
	"github.com/cadu1996/Sparkfy/internal/datasource/file"
	"github.com/cadu1996/Sparkfy/internal/extract"
	"github.com/cadu1996/Sparkfy/internal/logging"
	"github.com/cadu1996/Sparkfy/internal/metrics"
	"github.com/cadu1996/Sparkfy/internal/metrics/datadog"
	"github.com/cadu1996/Sparkfy/internal/metrics/prompush"
	"github.com/cadu1996/Sparkfy/internal/pipeline"
	"github.com/cadu1996/Sparkfy/internal/schema"
	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/upsert"

	// register all backends with the store factory; store.kind picks one.
	_ "github.com/cadu1996/Sparkfy/internal/store/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sparkify-etl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "YAML config path (default: $"+config.PathEnvVar+")")
	validate := fs.Bool("validate", false, "validate the configuration and exit")
	verbose := fs.Bool("v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if *validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	if err := load(ctx, cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		return 1
	}
	return 0
}

func load(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	start := time.Now()

	flush, err := setupMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}
	defer flush()

	db, err := store.New(ctx, store.Config{Kind: cfg.Store.Kind, DSN: cfg.Store.DSN})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()
	logger.Info("store opened", zap.String("kind", cfg.Store.Kind))

	if cfg.Store.AutoCreateSchema {
		if err := schema.Ensure(ctx, db); err != nil {
			return err
		}
	}

	roots := []string{cfg.Source.SongDir, cfg.Source.LogDir}
	found, err := file.DiscoverAll(ctx, cfg.Source.Extension, roots...)
	if err != nil {
		return err
	}
	for i, root := range roots {
		logger.Info(fmt.Sprintf("%d files found in %s", len(found[i]), root))
	}

	fields, err := extract.DefaultFields().WithOverrides(cfg.Fields)
	if err != nil {
		return err
	}
	policies, err := upsert.DefaultPolicies().WithOverrides(cfg.Upsert.Policies)
	if err != nil {
		return err
	}

	p := pipeline.New(db, logger, pipeline.Options{
		Job:             cfg.Metrics.Job,
		Extractor:       extract.New(extract.WithFields(fields), extract.WithPlaybackPage(cfg.Pipeline.PlaybackPage)),
		Policies:        policies,
		MatchDuration:   cfg.Resolve.MatchDuration,
		ContinueOnError: cfg.Pipeline.ContinueOnError,
	})
	if _, err := p.Run(ctx, found[0], found[1]); err != nil {
		return err
	}
	logger.Info("completed", zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return nil
}

// setupMetrics installs the configured backend and returns the function
// that flushes it at exit.
func setupMetrics(cfg config.MetricsConfig, logger *zap.Logger) (func(), error) {
	job := cfg.Job
	if job == "" {
		job = pipeline.DefaultJob
	}

	var b metrics.Backend
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		logger.Debug("metrics disabled")
		return func() {}, nil
	case "pushgateway":
		pb, err := prompush.NewBackend(job, cfg.PushgatewayURL)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = pb
	case "datadog":
		dd, err := datadog.NewBackend(datadog.Config{Addr: cfg.DatadogAddr, GlobalTags: []string{"job:" + job}})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		b = dd
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", cfg.Backend)
	}

	metrics.SetBackend(b)
	logger.Info("metrics enabled", zap.String("backend", cfg.Backend), zap.String("job", job))
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush", zap.Error(err))
		}
	}, nil
}
