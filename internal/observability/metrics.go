// Package observability provides Prometheus metrics for a batch run.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "altcoin_leadlag"

// Metrics holds the metrics of one run. Each run owns a private registry so
// that the textfile written at exit contains only that run.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	StageRunsTotal  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	RowsProduced    *prometheus.GaugeVec
	ArtifactsReused *prometheus.CounterVec

	// Provider metrics
	FetchTotal   *prometheus.CounterVec
	FetchErrors  *prometheus.CounterVec
	FetchLatency *prometheus.HistogramVec
	CacheHits    *prometheus.CounterVec

	// Model metrics
	FitsTotal         *prometheus.CounterVec
	ModelRSquared     prometheus.Gauge
	GrangerPValue     prometheus.Gauge
	TokensScored      prometheus.Counter
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all metrics registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		StageRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Total number of stage runs by status",
		}, []string{"stage", "status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		RowsProduced: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows",
			Help:      "Rows in the table produced by a stage",
		}, []string{"table"}),
		ArtifactsReused: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "artifacts_reused_total",
			Help:      "Derived tables loaded from storage instead of rebuilt",
		}, []string{"table"}),

		FetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total provider requests by provider and endpoint",
		}, []string{"provider", "endpoint"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total failed provider requests",
		}, []string{"provider", "endpoint"}),
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "request_latency_seconds",
			Help:      "Provider request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Raw cache lookups by result",
		}, []string{"result"}),

		FitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "fits_total",
			Help:      "Total model fits by kind and status",
		}, []string{"kind", "status"}),
		ModelRSquared: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "r_squared",
			Help:      "R-squared of the last OLS fit",
		}),
		GrangerPValue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "granger_p_value",
			Help:      "p-value of the last Granger test",
		}),
		TokensScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_scored_total",
			Help:      "Total number of tokens scored",
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
	}
}

// Registry exposes the run registry, e.g. for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordStage records a finished stage.
func (m *Metrics) RecordStage(stage string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StageRunsTotal.WithLabelValues(stage, status).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RecordFetch records a provider request.
func (m *Metrics) RecordFetch(provider, endpoint string, seconds float64, err error) {
	m.FetchTotal.WithLabelValues(provider, endpoint).Inc()
	m.FetchLatency.WithLabelValues(provider, endpoint).Observe(seconds)
	if err != nil {
		m.FetchErrors.WithLabelValues(provider, endpoint).Inc()
	}
}

// RecordCacheLookup records a raw cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheHits.WithLabelValues("hit").Inc()
		return
	}
	m.CacheHits.WithLabelValues("miss").Inc()
}

// RecordFit records a model fit.
func (m *Metrics) RecordFit(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FitsTotal.WithLabelValues(kind, status).Inc()
}

// MarkSuccess sets the last successful run timestamp to now.
func (m *Metrics) MarkSuccess() {
	m.LastSuccessfulRun.SetToCurrentTime()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
