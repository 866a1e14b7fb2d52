package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for the service.
type Metrics struct {
	registry             *prometheus.Registry
	requestCount         *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	errorCount           *prometheus.CounterVec
	ticketTransitions    *prometheus.CounterVec
	ticketUpdateRetries  prometheus.Counter
	notificationOutcomes *prometheus.CounterVec
	notificationQueue    prometheus.Gauge
	liveSubscribers      *prometheus.GaugeVec
}

// NewMetrics registers every collector on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "techdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "techdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "techdesk",
			Name:      "http_errors_total",
			Help:      "Error responses by route and error code.",
		}, []string{"route", "method", "code"}),
		ticketTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "techdesk",
			Name:      "ticket_updates_total",
			Help:      "Applied ticket updates by kind.",
		}, []string{"kind"}),
		ticketUpdateRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "techdesk",
			Name:      "ticket_update_conflicts_total",
			Help:      "Ticket updates retried after a version conflict.",
		}),
		notificationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "techdesk",
			Name:      "notifications_total",
			Help:      "Notification jobs by template and outcome.",
		}, []string{"template", "outcome"}),
		notificationQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "techdesk",
			Name:      "notification_queue_depth",
			Help:      "Notification jobs waiting for a worker.",
		}),
		liveSubscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "techdesk",
			Name:      "live_connections",
			Help:      "Open live feed connections by feed.",
		}, []string{"feed"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.ticketTransitions,
		m.ticketUpdateRetries,
		m.notificationOutcomes,
		m.notificationQueue,
		m.liveSubscribers,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordTicketUpdate counts an applied ticket update of the given kind.
func (m *Metrics) RecordTicketUpdate(kind string) {
	if m == nil {
		return
	}
	m.ticketTransitions.WithLabelValues(kind).Inc()
}

// RecordTicketConflict counts a version conflict that triggered a retry.
func (m *Metrics) RecordTicketConflict() {
	if m == nil {
		return
	}
	m.ticketUpdateRetries.Inc()
}

// RecordNotification counts a notification outcome: sent, failed, dropped
// or skipped.
func (m *Metrics) RecordNotification(template, outcome string) {
	if m == nil {
		return
	}
	m.notificationOutcomes.WithLabelValues(template, outcome).Inc()
}

// SetNotificationQueueDepth reports the pending job count.
func (m *Metrics) SetNotificationQueueDepth(n int) {
	if m == nil {
		return
	}
	m.notificationQueue.Set(float64(n))
}

// LiveConnectionOpened tracks a live feed connection.
func (m *Metrics) LiveConnectionOpened(feed string) {
	if m == nil {
		return
	}
	m.liveSubscribers.WithLabelValues(feed).Inc()
}

// LiveConnectionClosed tracks a live feed disconnect.
func (m *Metrics) LiveConnectionClosed(feed string) {
	if m == nil {
		return
	}
	m.liveSubscribers.WithLabelValues(feed).Dec()
}
