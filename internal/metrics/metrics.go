package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	notificationsCreated *prometheus.CounterVec
	realtimeEvents       *prometheus.CounterVec
	realtimeConnections  prometheus.Gauge
}

// New registers the application collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		notificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playmaker",
			Name:      "notifications_created_total",
			Help:      "Notifications recorded, by type.",
		}, []string{"type"}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playmaker",
			Name:      "realtime_events_total",
			Help:      "Realtime events queued to connections, by event and outcome.",
		}, []string{"event", "outcome"}),
		realtimeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "playmaker",
			Name:      "realtime_connections",
			Help:      "Open realtime connections.",
		}),
	}
	registry.MustRegister(
		m.notificationsCreated,
		m.realtimeEvents,
		m.realtimeConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) NotificationCreated(notificationType string) {
	if m == nil {
		return
	}
	m.notificationsCreated.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) EventDelivered(event string) {
	if m == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(event, "queued").Inc()
}

func (m *Metrics) EventDropped(event string) {
	if m == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(event, "dropped").Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.realtimeConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.realtimeConnections.Dec()
}
