// Package metrics records operational metrics of a pipeline run behind a
// small, backend-agnostic interface.
//
// A global backend defaults to a no-op, so instrumented code can always call
// the Record functions. Concrete systems live in subpackages (prompush for a
// Prometheus Pushgateway, datadog for DogStatsD) and are installed with
// SetBackend by the command wiring.
package metrics

import "time"

// Metric names emitted by the Record helpers.
const (
	FileTotal       = "sparkify_file_total"
	FileDuration    = "sparkify_file_duration_seconds"
	RowsTotal       = "sparkify_rows_total"
	UnresolvedTotal = "sparkify_unresolved_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordFile counts one processed file and its duration, labelled with the
// phase (dimension or fact) and outcome.
func RecordFile(job, phase string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "phase": phase, "status": status}
	backend.IncCounter(FileTotal, 1, lbls)
	backend.ObserveHistogram(FileDuration, d.Seconds(), lbls)
}

// RecordRows adds n rows applied to relation, duplicates included.
func RecordRows(job, relation string, n int64) {
	if n <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(n), Labels{"job": job, "relation": relation})
}

// RecordUnresolved adds n playback events that matched no catalog entry.
func RecordUnresolved(job string, n int64) {
	if n <= 0 {
		return
	}
	backend.IncCounter(UnresolvedTotal, float64(n), Labels{"job": job})
}
