package rest

import (
	"strings"
	"time"

	"epages-rest-layer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records client-side request counts and latencies.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epages_client_requests_total",
				Help: "Total number of requests sent to the shop API.",
			},
			[]string{"method", "resource", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epages_client_request_duration_seconds",
				Help:    "Histogram of shop API request durations.",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "resource"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(method domain.Method, path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	resource := resourceLabel(path)
	m.requests.WithLabelValues(string(method), resource, outcome).Inc()
	m.duration.WithLabelValues(string(method), resource).Observe(d.Seconds())
}

// resourceLabel keeps label cardinality low: "products/42/images" → "products".
func resourceLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
