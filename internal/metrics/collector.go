// Package metrics exposes prometheus metrics for HTTP traffic and model
// invocations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "imageeditor"

// Collector owns a registry and the service's metric vectors.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	modelAttemptsTotal *prometheus.CounterVec
	editResultsTotal   *prometheus.CounterVec
	editDuration       *prometheus.HistogramVec
}

// NewCollector creates a Collector backed by a fresh registry, so several
// collectors can coexist in tests.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		modelAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_attempts_total",
				Help:      "Model calls by ladder stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		editResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edit_results_total",
				Help:      "Edit requests by final outcome and stage",
			},
			[]string{"outcome", "stage"},
		),
		editDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "edit_duration_seconds",
				Help:      "Time spent producing an edit, including every model call",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
	}
}

// RecordAttempt counts one model call.
func (c *Collector) RecordAttempt(stage string, ok bool) {
	outcome := "error"
	if ok {
		outcome = "success"
	}
	c.modelAttemptsTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordResult counts one finished edit.
func (c *Collector) RecordResult(outcome, stage string, elapsed time.Duration) {
	c.editResultsTotal.WithLabelValues(outcome, stage).Inc()
	c.editDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordHTTPRequest counts one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
