// Package metrics exposes redirect counters on a dedicated prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kie_redirect"

// Transport labels.
const (
	TransportHTTP    = "http"
	TransportMessage = "message"
)

// Metrics is nil safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	decisions       *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Requests seen by the resolver, by transport and winning strategy.",
		}, []string{"transport", "strategy"}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Requests rejected before or after resolution because of malformed transport data.",
		}, []string{"transport"}),
	}
	m.registry.MustRegister(
		m.decisions,
		m.transportErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDecision counts one resolution outcome.
func (m *Metrics) ObserveDecision(transport, strategy string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(transport, strategy).Inc()
}

func (m *Metrics) ObserveTransportError(transport string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(transport).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
