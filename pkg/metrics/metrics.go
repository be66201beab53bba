// Package metrics defines the Prometheus collectors for a synchronization and
// indexing run. The process is short-lived, so instead of serving /metrics
// the registry is flushed once at exit to a Pushgateway and/or a
// node_exporter textfile.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for one run.
type Metrics struct {
	Registry *prometheus.Registry

	FetchAttemptsTotal *prometheus.CounterVec
	ComicsFetchedTotal prometheus.Counter
	ComicsSkippedTotal *prometheus.CounterVec
	SyncHaltsTotal     prometheus.Counter
	PersistErrorsTotal *prometheus.CounterVec
	RemoteFrontier     prometheus.Gauge
	ComicsIndexedTotal *prometheus.CounterVec
	PostingsWritten    prometheus.Counter
	PhaseDuration      *prometheus.HistogramVec
}

// New creates all collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xkcd_fetch_attempts_total",
				Help: "Remote fetch attempts by outcome (success, failure).",
			},
			[]string{"outcome"},
		),
		ComicsFetchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "xkcd_comics_fetched_total",
				Help: "Comics fetched and persisted during synchronization.",
			},
		),
		ComicsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xkcd_comics_skipped_total",
				Help: "Comics skipped during synchronization by reason (present, known_bad).",
			},
			[]string{"reason"},
		),
		SyncHaltsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "xkcd_sync_halts_total",
				Help: "Synchronization runs halted by an exhausted retry budget.",
			},
		),
		PersistErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xkcd_persist_errors_total",
				Help: "Failed writes by kind (comic, postings).",
			},
			[]string{"kind"},
		),
		RemoteFrontier: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "xkcd_remote_frontier",
				Help: "Highest comic number used as the synchronization bound.",
			},
		),
		ComicsIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xkcd_comics_indexed_total",
				Help: "Indexing outcomes per comic (indexed, empty, failed).",
			},
			[]string{"outcome"},
		),
		PostingsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "xkcd_postings_written_total",
				Help: "Postings written to storage.",
			},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xkcd_phase_duration_seconds",
				Help:    "Wall time of each run phase (sync, index).",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"phase"},
		),
	}

	m.Registry.MustRegister(
		m.FetchAttemptsTotal,
		m.ComicsFetchedTotal,
		m.ComicsSkippedTotal,
		m.SyncHaltsTotal,
		m.PersistErrorsTotal,
		m.RemoteFrontier,
		m.ComicsIndexedTotal,
		m.PostingsWritten,
		m.PhaseDuration,
	)

	return m
}

// WriteTextfile writes the registry in text exposition format to path,
// replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// Push sends the registry to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
