package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "churn_insight"

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ChurnProbability  prometheus.Histogram
	CustomersCreated  prometheus.Counter
	CustomersDeleted  prometheus.Counter
	CustomersImported prometheus.Counter
	ImportRowsSkipped prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ChurnProbability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "churn_probability",
			Help:      "Distribution of computed churn probabilities.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		CustomersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "customers_created_total",
			Help:      "Customers added through the API.",
		}),
		CustomersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "customers_deleted_total",
			Help:      "Customers deleted through the API.",
		}),
		CustomersImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "customers_imported_total",
			Help:      "Customer rows written by CSV imports.",
		}),
		ImportRowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_skipped_total",
			Help:      "CSV rows skipped because their CustomerID was unusable.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.ChurnProbability,
		m.CustomersCreated,
		m.CustomersDeleted,
		m.CustomersImported,
		m.ImportRowsSkipped,
	)
	return m
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// ObserveScore records a computed churn probability
func (m *Metrics) ObserveScore(probability int) {
	if m == nil {
		return
	}
	m.ChurnProbability.Observe(float64(probability))
}

// CustomerCreated increments the created counter
func (m *Metrics) CustomerCreated() {
	if m != nil {
		m.CustomersCreated.Inc()
	}
}

// CustomerDeleted increments the deleted counter
func (m *Metrics) CustomerDeleted() {
	if m != nil {
		m.CustomersDeleted.Inc()
	}
}

// ImportFinished records the outcome of a CSV import
func (m *Metrics) ImportFinished(imported, skipped int) {
	if m == nil {
		return
	}
	m.CustomersImported.Add(float64(imported))
	m.ImportRowsSkipped.Add(float64(skipped))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
