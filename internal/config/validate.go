package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/extract"
	"github.com/cadu1996/Sparkfy/internal/upsert"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is the dotted config key,
// e.g. "store.dsn" or "upsert.policies.users".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// knownStoreKinds mirrors the backends linked into the command.
var knownStoreKinds = []string{"mssql", "mysql", "postgres", "postgresql", "sqlite", "sqlserver"}

// Validate performs static checks over cfg. It does not touch the
// filesystem or the database.
func Validate(cfg Config) []Issue {
	var issues []Issue
	issues = append(issues, validateSource(cfg.Source)...)
	issues = append(issues, validateStore(cfg.Store)...)
	issues = append(issues, validatePipeline(cfg.Pipeline)...)
	issues = append(issues, validateUpsert(cfg.Upsert)...)
	issues = append(issues, validateFields(cfg.Fields)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateLog(cfg.Log)...)
	return issues
}

func validateSource(s SourceConfig) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.SongDir) == "" {
		issues = append(issues, Issue{SeverityError, "source.song_dir", "song_dir must not be empty"})
	}
	if strings.TrimSpace(s.LogDir) == "" {
		issues = append(issues, Issue{SeverityError, "source.log_dir", "log_dir must not be empty"})
	}
	if s.SongDir != "" && s.LogDir != "" && filepath.Clean(s.SongDir) == filepath.Clean(s.LogDir) {
		issues = append(issues, Issue{SeverityWarning, "source.log_dir", "log_dir equals song_dir; catalog files will be read as event logs"})
	}
	switch {
	case s.Extension == "":
		issues = append(issues, Issue{SeverityError, "source.extension", "extension must not be empty"})
	case !strings.HasPrefix(s.Extension, "."):
		issues = append(issues, Issue{SeverityError, "source.extension", fmt.Sprintf("extension %q must start with a dot", s.Extension)})
	}
	return issues
}

func validateStore(s StoreConfig) []Issue {
	var issues []Issue
	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	switch {
	case kind == "":
		issues = append(issues, Issue{SeverityError, "store.kind", "kind must not be empty"})
	case !slices.Contains(knownStoreKinds, kind):
		issues = append(issues, Issue{SeverityError, "store.kind", fmt.Sprintf("unsupported store.kind=%s (want one of %s)", s.Kind, strings.Join(knownStoreKinds, ", "))})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "store.dsn", "dsn must not be empty"})
	}
	if !s.AutoCreateSchema {
		issues = append(issues, Issue{SeverityWarning, "store.auto_create_schema", "schema creation disabled; the five tables must already exist"})
	}
	return issues
}

func validatePipeline(p PipelineConfig) []Issue {
	var issues []Issue
	if strings.TrimSpace(p.PlaybackPage) == "" {
		issues = append(issues, Issue{SeverityError, "pipeline.playback_page", "playback_page must not be empty"})
	}
	if p.ContinueOnError {
		issues = append(issues, Issue{SeverityWarning, "pipeline.continue_on_error", "failed files are skipped and reported at the end"})
	}
	return issues
}

func validateUpsert(u UpsertConfig) []Issue {
	var issues []Issue
	names := make([]string, 0, len(u.Policies))
	for n := range u.Policies {
		names = append(names, n)
	}
	sort.Strings(names)

	defaults := upsert.DefaultPolicies()
	for _, n := range names {
		path := "upsert.policies." + n
		if _, ok := defaults[n]; !ok {
			issues = append(issues, Issue{SeverityError, path, fmt.Sprintf("unknown relation %q", n)})
			continue
		}
		p, err := upsert.ParsePolicy(u.Policies[n])
		if err != nil {
			issues = append(issues, Issue{SeverityError, path, err.Error()})
			continue
		}
		if n == domain.TableUsers && p.String() != upsert.MergeOn("level").String() {
			issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf("policy %s does not keep users.level current", p)})
		}
	}
	return issues
}

func validateFields(f map[string][]string) []Issue {
	if len(f) == 0 {
		return nil
	}
	if _, err := extract.DefaultFields().WithOverrides(f); err != nil {
		return []Issue{{SeverityError, "fields", err.Error()}}
	}
	return nil
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue
	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url"})
		} else if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", fmt.Sprintf("invalid URL %q", m.PushgatewayURL)})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend", fmt.Sprintf("unknown backend %q (want none, pushgateway or datadog)", m.Backend)})
	}
	return issues
}

func validateLog(l LogConfig) []Issue {
	var issues []Issue
	if l.Level != "" {
		if _, err := zapcore.ParseLevel(strings.TrimSpace(l.Level)); err != nil {
			issues = append(issues, Issue{SeverityError, "log.level", fmt.Sprintf("invalid level %q", l.Level)})
		}
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "console", "json":
	default:
		issues = append(issues, Issue{SeverityWarning, "log.format", fmt.Sprintf("unknown format %q; using console", l.Format)})
	}
	return issues
}
