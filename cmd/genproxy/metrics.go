package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector manages Prometheus metrics for the proxy. Each collector
// owns its registry so several servers can live in one process.
type MetricsCollector struct {
	registry            *prometheus.Registry
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	errorsTotal         *prometheus.CounterVec
	activeRequests      *prometheus.GaugeVec
	operationCompletion *prometheus.HistogramVec
}

// NewMetricsCollector creates a new MetricsCollector and registers all metrics
func NewMetricsCollector() *MetricsCollector {
	m := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genproxy_requests_total",
				Help: "Total number of proxy requests",
			},
			[]string{"route", "profile", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genproxy_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"route", "profile"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "genproxy_errors_total",
				Help: "Total number of errors",
			},
			[]string{"route", "error_type"},
		),
		activeRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "genproxy_active_requests",
				Help: "Number of active requests",
			},
			[]string{"route"},
		),
		operationCompletion: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genproxy_operation_completion_seconds",
				Help:    "Time from starting a video operation to observing it done",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"model", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.activeRequests,
		m.operationCompletion,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRequest records a completed request
func (m *MetricsCollector) RecordRequest(route, profile, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, profile, status).Inc()
	m.requestDuration.WithLabelValues(route, profile).Observe(duration.Seconds())
}

// RecordError records an error
func (m *MetricsCollector) RecordError(route, errorType string) {
	m.errorsTotal.WithLabelValues(route, errorType).Inc()
}

// IncActiveRequests increments the active request counter
func (m *MetricsCollector) IncActiveRequests(route string) {
	m.activeRequests.WithLabelValues(route).Inc()
}

// DecActiveRequests decrements the active request counter
func (m *MetricsCollector) DecActiveRequests(route string) {
	m.activeRequests.WithLabelValues(route).Dec()
}

// RecordOperationCompletion records how long a tracked operation ran.
func (m *MetricsCollector) RecordOperationCompletion(model, outcome string, elapsed time.Duration) {
	m.operationCompletion.WithLabelValues(model, outcome).Observe(elapsed.Seconds())
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
