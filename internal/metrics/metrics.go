// Package metrics holds the Prometheus collectors shared by the ingestion pipeline and LLM clients.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dreamweaver"

// Metrics owns a registry and the collectors registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	ingestUnits    *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	divergence     prometheus.Counter
	llmRequests    *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
}

// New creates a registry with Go and process collectors plus the application collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ingestUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "units_total",
			Help:      "Ingested content units by source type and outcome.",
		}, []string{"source", "status"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "import_seconds",
			Help:      "Duration of a whole-file import.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"source"}),
		divergence: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "divergence_total",
			Help:      "Entries stored in the relational table whose vector upsert failed.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Calls to model backends by operation and status.",
		}, []string{"operation", "status"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_seconds",
			Help:      "Latency of model backend calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(m.ingestUnits, m.importDuration, m.divergence, m.llmRequests, m.llmDuration)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// UnitProcessed counts one content unit with its final status.
func (m *Metrics) UnitProcessed(source, status string) {
	if m == nil {
		return
	}
	m.ingestUnits.WithLabelValues(source, status).Inc()
}

// ImportTimer starts a timer for one whole-file import. Call ObserveDuration when done.
func (m *Metrics) ImportTimer(source string) *prometheus.Timer {
	if m == nil {
		return prometheus.NewTimer(prometheus.ObserverFunc(func(float64) {}))
	}
	return prometheus.NewTimer(m.importDuration.WithLabelValues(source))
}

// DivergenceInc records a relational insert that has no vector counterpart.
func (m *Metrics) DivergenceInc() {
	if m == nil {
		return
	}
	m.divergence.Inc()
}

// LLMRequest records one backend call.
func (m *Metrics) LLMRequest(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.llmRequests.WithLabelValues(operation, status).Inc()
	m.llmDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
