// ABOUTME: Prometheus metrics for gateway calls and project mirror mutations
// ABOUTME: Registered on a dedicated registry exposed at the configured path

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for the sync layer.
type Metrics struct {
	registry *prometheus.Registry

	// GatewayCalls counts remote gateway operations by op and outcome.
	GatewayCalls *prometheus.CounterVec
	// GatewayDuration observes remote gateway call latency by op.
	GatewayDuration *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		GatewayCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labsync",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Remote gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "labsync",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Remote gateway call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
