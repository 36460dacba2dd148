// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch job is gone before any scrape would reach it, so
// collected metrics are pushed to a gateway on Flush instead of being served.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/cadu1996/Sparkfy/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend. The job label of the
// generic API becomes the Pushgateway grouping key and is not repeated on
// each series.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	fileCounter  *prometheus.CounterVec // sparkify_file_total
	fileDuration *prometheus.SummaryVec // sparkify_file_duration_seconds
	rowCounter   *prometheus.CounterVec // sparkify_rows_total
	unresolved   prometheus.Counter     // sparkify_unresolved_total
}

// NewBackend constructs a backend pushing to gatewayURL under jobName.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "sparkify_etl"
	}

	reg := prometheus.NewRegistry()

	fileCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.FileTotal,
			Help: "Source files processed, partitioned by phase and status.",
		},
		[]string{"phase", "status"},
	)
	fileDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.FileDuration,
			Help:       "Time spent loading one source file, partitioned by phase and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"phase", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows applied, partitioned by relation.",
		},
		[]string{"relation"},
	)
	unresolved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metrics.UnresolvedTotal,
			Help: "Playback events that matched no catalog entry.",
		},
	)

	for _, c := range []prometheus.Collector{fileCounter, fileDuration, rowCounter, unresolved} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		fileCounter:  fileCounter,
		fileDuration: fileDuration,
		rowCounter:   rowCounter,
		unresolved:   unresolved,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.FileTotal:
		if b.fileCounter == nil {
			return
		}
		b.fileCounter.WithLabelValues(labels["phase"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["relation"]).Add(delta)
	case metrics.UnresolvedTotal:
		if b.unresolved == nil {
			return
		}
		b.unresolved.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.FileDuration || b.fileDuration == nil {
		return
	}
	b.fileDuration.WithLabelValues(labels["phase"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway, replacing the
// previous push of the same job.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
