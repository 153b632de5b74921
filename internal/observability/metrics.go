package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec

	ProviderRequestsTotal *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec
	BreakerState          *prometheus.GaugeVec

	CacheWritesTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// defaultBuckets are the histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// NewMetrics creates all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "futureslens",
				Subsystem: "evaluation",
				Name:      "total",
				Help:      "Evaluations by data source and outcome",
			},
			[]string{"source", "status"},
		),
		EvaluationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "futureslens",
				Subsystem: "evaluation",
				Name:      "duration_seconds",
				Help:      "Duration of a full evaluation in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"source"},
		),
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "futureslens",
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Market data requests by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "futureslens",
				Subsystem: "provider",
				Name:      "duration_seconds",
				Help:      "Duration of market data requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"endpoint"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "futureslens",
				Subsystem: "provider",
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		CacheWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "futureslens",
				Subsystem: "cache",
				Name:      "writes_total",
				Help:      "Cache file writes by outcome",
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "futureslens",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "futureslens",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// GetMetrics returns the process-wide metrics, creating them on first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		if globalMetrics == nil {
			globalMetrics = NewMetrics()
		}
	})
	return globalMetrics
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordProviderRequest records one market data request.
func (m *Metrics) RecordProviderRequest(endpoint string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.ProviderDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordEvaluation records one evaluation.
func (m *Metrics) RecordEvaluation(source string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EvaluationsTotal.WithLabelValues(source, status).Inc()
	m.EvaluationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordCacheWrite records one cache file write.
func (m *Metrics) RecordCacheWrite(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CacheWritesTotal.WithLabelValues(status).Inc()
}

// SetBreakerState records a circuit breaker transition.
// 0=closed, 1=half-open, 2=open
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
