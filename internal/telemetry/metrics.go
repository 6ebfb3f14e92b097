// Package telemetry exposes probe and gateway counters for Prometheus.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	probesTotal     *prometheus.CounterVec
	probeDuration   *prometheus.HistogramVec
	rejectionsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seca_recon_probes_total",
			Help: "Probes executed, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	m.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seca_recon_probe_duration_seconds",
			Help:    "Probe wall-clock duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"operation"},
	)
	m.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seca_recon_rejections_total",
			Help: "Requests rejected before any probe ran, by operation and reason",
		},
		[]string{"operation", "reason"},
	)

	for _, c := range []prometheus.Collector{m.probesTotal, m.probeDuration, m.rejectionsTotal} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveProbe records one executed probe.
func (m *Metrics) ObserveProbe(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(operation, outcome).Inc()
	m.probeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveRejection records a request stopped by the gateway.
func (m *Metrics) ObserveRejection(operation, reason string) {
	if m == nil {
		return
	}
	m.rejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
