// Package metrics exposes Prometheus instrumentation for analysis runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Skip reasons used as label values.
const (
	ReasonMissingTitle  = "missing_title"
	ReasonEmptyText     = "empty_text"
	ReasonSchema        = "schema_mismatch"
	ReasonUnknownAgency = "unknown_agency"
)

// Metrics holds the collectors for one process. A fresh registry per
// Metrics keeps watch-mode runs from fighting over the default registry.
type Metrics struct {
	registry *prometheus.Registry

	ReferencesProcessed prometheus.Counter
	RecordsSkipped      *prometheus.CounterVec
	TitlesLoaded        prometheus.Counter
	CorrectionsMerged   prometheus.Counter
	RunDuration         prometheus.Histogram
}

// New creates and registers the analysis collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.ReferencesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecfrscan_references_processed_total",
		Help: "CFR references measured across all runs.",
	})
	m.RecordsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecfrscan_records_skipped_total",
		Help: "Input records skipped, by reason.",
	}, []string{"reason"})
	m.TitlesLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecfrscan_titles_loaded_total",
		Help: "Title text documents parsed.",
	})
	m.CorrectionsMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecfrscan_corrections_merged_total",
		Help: "Correction records merged into agency buckets.",
	})
	m.RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ecfrscan_run_duration_seconds",
		Help:    "Wall time of full analysis runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	m.registry.MustRegister(
		m.ReferencesProcessed,
		m.RecordsSkipped,
		m.TitlesLoaded,
		m.CorrectionsMerged,
		m.RunDuration,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
