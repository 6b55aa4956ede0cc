// Package metrics records client-side request metrics with Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c, err := client.Build(client.WithMetrics(metrics.New(reg)))
//
// Collectors are registered on the given registerer; pass
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rapidhttp"

// Metrics holds the client collectors.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	DedicatedTotal  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of completed HTTP requests",
			},
			[]string{"method", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds, body read included",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_size_bytes",
				Help:      "Buffered response body size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed HTTP requests by error kind",
			},
			[]string{"method", "kind"},
		),
		DedicatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedicated_clients_total",
				Help:      "One-off clients built for calls the pooled client cannot serve",
			},
			[]string{"reason"},
		),
	}
}

// ObserveResponse records a completed request.
func (m *Metrics) ObserveResponse(method string, code int, size int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	m.ResponseSize.WithLabelValues(method).Observe(float64(size))
}

// ObserveError records a failed request under its taxonomy kind.
func (m *Metrics) ObserveError(method, kind string) {
	m.ErrorsTotal.WithLabelValues(method, kind).Inc()
}

// ObserveDedicated records a dedicated client being built.
func (m *Metrics) ObserveDedicated(reason string) {
	m.DedicatedTotal.WithLabelValues(reason).Inc()
}
