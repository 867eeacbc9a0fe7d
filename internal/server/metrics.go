package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "archive_bridge"

// Metrics collects request and upload counters for /metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	uploads  *prometheus.HistogramVec
	handler  http.Handler
}

// NewMetrics registers the bridge collectors with reg. A nil reg gets a
// fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC envelopes received, by method and outcome.",
		}, []string{"method", "outcome"}),
		uploads: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "archive_upload_duration_seconds",
			Help:      "Duration of archive uploads, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	reg.MustRegister(m.requests, m.uploads)

	return m
}

// ObserveRequest counts one envelope.
func (m *Metrics) ObserveRequest(method, outcome string) {
	m.requests.WithLabelValues(method, outcome).Inc()
}

// ObserveUpload records one archive upload. It matches archive.ObserveFunc.
func (m *Metrics) ObserveUpload(outcome string, elapsed time.Duration) {
	m.uploads.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}
