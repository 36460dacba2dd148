// Package config loads the run configuration in layers: built-in defaults,
// then an optional YAML file, then SPARKIFY_* environment variables. Later
// layers override earlier ones key by key.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding the config file path
// when none is given on the command line.
const PathEnvVar = "SPARKIFY_CONFIG"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPARKIFY_"

// Config is the complete run configuration.
type Config struct {
	Source   SourceConfig        `koanf:"source"`
	Store    StoreConfig         `koanf:"store"`
	Resolve  ResolveConfig       `koanf:"resolve"`
	Pipeline PipelineConfig      `koanf:"pipeline"`
	Upsert   UpsertConfig        `koanf:"upsert"`
	Fields   map[string][]string `koanf:"fields"` // role -> record keys, see extract.Fields
	Metrics  MetricsConfig       `koanf:"metrics"`
	Log      LogConfig           `koanf:"log"`
}

// SourceConfig locates the input trees.
type SourceConfig struct {
	SongDir   string `koanf:"song_dir"`
	LogDir    string `koanf:"log_dir"`
	Extension string `koanf:"extension"`
}

// StoreConfig selects the relational backend.
type StoreConfig struct {
	Kind             string `koanf:"kind"`
	DSN              string `koanf:"dsn"`
	AutoCreateSchema bool   `koanf:"auto_create_schema"`
}

// ResolveConfig tunes the catalog lookup.
type ResolveConfig struct {
	MatchDuration bool `koanf:"match_duration"`
}

// PipelineConfig tunes the orchestrator.
type PipelineConfig struct {
	ContinueOnError bool   `koanf:"continue_on_error"`
	PlaybackPage    string `koanf:"playback_page"`
}

// UpsertConfig overrides conflict policies per relation, in the textual form
// accepted by upsert.ParsePolicy.
type UpsertConfig struct {
	Policies map[string]string `koanf:"policies"`
}

// MetricsConfig selects and configures the metrics backend.
type MetricsConfig struct {
	Backend        string `koanf:"backend"` // none, pushgateway or datadog
	Job            string `koanf:"job"`
	PushgatewayURL string `koanf:"pushgateway_url"`
	DatadogAddr    string `koanf:"datadog_addr"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration: the local data layout and the
// student Postgres database.
func Default() Config {
	return Config{
		Source: SourceConfig{
			SongDir:   "data/song_data",
			LogDir:    "data/log_data",
			Extension: ".json",
		},
		Store: StoreConfig{
			Kind:             "postgres",
			DSN:              "host=127.0.0.1 dbname=sparkifydb user=student password=student",
			AutoCreateSchema: true,
		},
		Pipeline: PipelineConfig{PlaybackPage: "NextSong"},
		Metrics:  MetricsConfig{Backend: "none", Job: "sparkify_etl"},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

// Load builds the configuration. path names a YAML file; when empty the
// SPARKIFY_CONFIG variable is consulted, and when that is empty too only
// defaults and environment apply.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// envMappings maps SPARKIFY_* suffixes to config keys. Nested maps (fields,
// upsert.policies) are file-only.
var envMappings = map[string]string{
	"source_song_dir":            "source.song_dir",
	"source_log_dir":             "source.log_dir",
	"source_extension":           "source.extension",
	"store_kind":                 "store.kind",
	"store_dsn":                  "store.dsn",
	"store_auto_create_schema":   "store.auto_create_schema",
	"resolve_match_duration":     "resolve.match_duration",
	"pipeline_continue_on_error": "pipeline.continue_on_error",
	"pipeline_playback_page":     "pipeline.playback_page",
	"metrics_backend":            "metrics.backend",
	"metrics_job":                "metrics.job",
	"metrics_pushgateway_url":    "metrics.pushgateway_url",
	"metrics_datadog_addr":       "metrics.datadog_addr",
	"log_level":                  "log.level",
	"log_format":                 "log.format",
}

// envKey maps SPARKIFY_STORE_DSN to store.dsn. Unknown variables, including
// SPARKIFY_CONFIG itself, map to "" and are skipped.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return envMappings[key]
}
