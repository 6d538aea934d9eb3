// Package metrics holds the prometheus collectors for the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "afusocial"

type Metrics struct {
	registry *prometheus.Registry

	httpInFlight    prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	socialActions   *prometheus.CounterVec
	messagesSent    prometheus.Counter
	aiRequests      *prometheus.CounterVec
	aiDuration      *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
	wsConnections   prometheus.Gauge
}

// New registers every collector on a private registry along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		socialActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "social",
			Name:      "actions_total",
			Help:      "Likes, follows and comments that changed state.",
		}, []string{"action"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "messages_total",
			Help:      "Messages stored.",
		}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Chat completion calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Latency of chat completion calls.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"operation"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events published by subject and outcome.",
		}, []string{"subject", "outcome"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.socialActions,
		m.messagesSent,
		m.aiRequests,
		m.aiDuration,
		m.eventsPublished,
		m.wsConnections,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IncrementInFlight() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

func (m *Metrics) DecrementInFlight() {
	if m == nil {
		return
	}
	m.httpInFlight.Dec()
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSocialAction counts social writes by action name.
func (m *Metrics) RecordSocialAction(action string) {
	if m == nil {
		return
	}
	m.socialActions.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordMessage() {
	if m == nil {
		return
	}
	m.messagesSent.Inc()
}

func (m *Metrics) RecordAIRequest(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
	m.aiDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordEvent(subject string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(subject, outcome).Inc()
}

func (m *Metrics) SetWebsocketConnections(n int) {
	if m == nil {
		return
	}
	m.wsConnections.Set(float64(n))
}
