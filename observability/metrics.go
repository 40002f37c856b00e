package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fincentiva"

// Metrics owns a private registry with the API's collectors. It satisfies
// both the calculation observer of the loan service and the request observer
// of the HTTP layer.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	calculations    *prometheus.CounterVec
	calcDuration    *prometheus.HistogramVec
	irrNotConverged *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Payment plan calculations, by frequency and outcome.",
		}, []string{"frequency", "outcome"}),
		calcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent computing the candidate plans.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"frequency"}),
		irrNotConverged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "irr_not_converged_total",
			Help:      "Plans whose IRR hit the iteration cap.",
		}, []string{"frequency"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.calculations,
		m.calcDuration,
		m.irrNotConverged,
	)
	return m
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveCalculation(frequency string, duration time.Duration, err error) {
	frequency = frequencyLabel(frequency)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calculations.WithLabelValues(frequency, outcome).Inc()
	m.calcDuration.WithLabelValues(frequency).Observe(duration.Seconds())
}

func (m *Metrics) ObserveIRRNotConverged(frequency string) {
	m.irrNotConverged.WithLabelValues(frequencyLabel(frequency)).Inc()
}

// frequencyLabel keeps label cardinality bounded; arbitrary client input
// collapses into "other".
func frequencyLabel(frequency string) string {
	switch frequency {
	case "weekly", "biweekly", "fortnightly", "monthly":
		return frequency
	case "":
		return "default"
	default:
		return "other"
	}
}
