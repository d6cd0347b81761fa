package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the prometheus metrics for the dock core. It registers
// against its own registry so multiple instances (one per test) never
// collide on metric names.
type Collector struct {
	registry *prometheus.Registry

	apiRequestsTotal   *prometheus.CounterVec
	credentialRenewals prometheus.Counter
	proxyActionsTotal  *prometheus.CounterVec
	proxyLatency       prometheus.Histogram
	streamLive         prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		apiRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livedock_api_requests_total",
			Help: "Cloud API requests by operation and outcome",
		}, []string{"operation", "outcome"}),

		credentialRenewals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livedock_credential_renewals_total",
			Help: "Credential renewal attempts triggered by HTTP 401",
		}),

		proxyActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livedock_proxy_actions_total",
			Help: "Local proxy /lapi dispatches by action and outcome",
		}, []string{"action", "outcome"}),

		proxyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "livedock_proxy_request_duration_seconds",
			Help:    "Duration of /lapi requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}),

		streamLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "livedock_stream_live",
			Help: "Whether a streaming session is currently live (0 or 1)",
		}),
	}

	c.registry.MustRegister(
		c.apiRequestsTotal,
		c.credentialRenewals,
		c.proxyActionsTotal,
		c.proxyLatency,
		c.streamLive,
	)
	return c
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordAPIRequest(operation string, success bool) {
	c.apiRequestsTotal.WithLabelValues(operation, outcome(success)).Inc()
}

func (c *Collector) RecordCredentialRenewal() {
	c.credentialRenewals.Inc()
}

func (c *Collector) RecordProxyAction(action string, success bool) {
	c.proxyActionsTotal.WithLabelValues(action, outcome(success)).Inc()
}

func (c *Collector) ObserveProxyLatency(seconds float64) {
	c.proxyLatency.Observe(seconds)
}

func (c *Collector) SetStreamLive(live bool) {
	if live {
		c.streamLive.Set(1)
		return
	}
	c.streamLive.Set(0)
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
