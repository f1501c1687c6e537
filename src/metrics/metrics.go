// Package metrics exposes Prometheus counters and gauges for collection,
// classification and the log store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opslens/src/contracts"
)

const namespace = "opslens"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	logsCollected  *prometheus.CounterVec
	logsClassified *prometheus.CounterVec
	collectErrors  *prometheus.CounterVec
	evictions      prometheus.Counter
	storeSize      prometheus.Gauge
}

// New creates a Metrics instance with its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		logsCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_collected_total",
			Help:      "Raw log records normalized, by source.",
		}, []string{"source"}),
		logsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_classified_total",
			Help:      "Classified log records, by category and severity.",
		}, []string{"category", "severity"}),
		collectErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collect_errors_total",
			Help:      "Failed collections, by source.",
		}, []string{"source"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_evictions_total",
			Help:      "Records dropped from the store to stay within capacity.",
		}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_size",
			Help:      "Records currently held in the store.",
		}),
	}

	registry.MustRegister(
		m.logsCollected,
		m.logsClassified,
		m.collectErrors,
		m.evictions,
		m.storeSize,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// ObserveCollected counts n records normalized from source.
func (m *Metrics) ObserveCollected(source contracts.Source, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.logsCollected.WithLabelValues(string(source)).Add(float64(n))
}

// ObserveClassified counts classified records by category and severity.
func (m *Metrics) ObserveClassified(logs []contracts.ClassifiedLog) {
	if m == nil {
		return
	}
	for _, l := range logs {
		m.logsClassified.WithLabelValues(string(l.Category), string(l.Severity)).Inc()
	}
}

// ObserveCollectError counts a failed collection for source.
func (m *Metrics) ObserveCollectError(source contracts.Source) {
	if m == nil {
		return
	}
	m.collectErrors.WithLabelValues(string(source)).Inc()
}

// ObserveStore records the store size and evictions after an append. It has
// the signature of store.AppendHook.
func (m *Metrics) ObserveStore(size, evicted int) {
	if m == nil {
		return
	}
	m.storeSize.Set(float64(size))
	if evicted > 0 {
		m.evictions.Add(float64(evicted))
	}
}
