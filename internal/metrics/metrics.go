// Package metrics exposes Prometheus counters for the gateway and the
// background jobs. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	alertsCreated   prometheus.Counter
	alertFailures   *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	quotaRejections prometheus.Counter
	alertsExpired   prometheus.Counter
	pushes          *prometheus.CounterVec
	requests        *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		alertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pataalerta_alerts_created_total",
			Help: "Alerts successfully published.",
		}),
		alertFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pataalerta_alert_failures_total",
			Help: "Alert submissions that failed, by failure kind.",
		}, []string{"kind"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pataalerta_photo_uploads_total",
			Help: "Photo uploads by outcome.",
		}, []string{"result"}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pataalerta_quota_rejections_total",
			Help: "Submissions refused by the daily device limit.",
		}),
		alertsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pataalerta_alerts_expired_total",
			Help: "Alerts marked expired by the sweeper.",
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pataalerta_push_notifications_total",
			Help: "Web push deliveries by outcome.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pataalerta_http_requests_total",
			Help: "Gateway requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.alertsCreated, m.alertFailures, m.uploads, m.quotaRejections,
		m.alertsExpired, m.pushes, m.requests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) AlertCreated() {
	if m != nil {
		m.alertsCreated.Inc()
	}
}

func (m *Metrics) AlertFailed(kind string) {
	if m != nil {
		m.alertFailures.WithLabelValues(kind).Inc()
	}
}

// PhotoUploaded records an upload outcome: "ok" or a failure kind.
func (m *Metrics) PhotoUploaded(result string) {
	if m != nil {
		m.uploads.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) QuotaRejected() {
	if m != nil {
		m.quotaRejections.Inc()
	}
}

func (m *Metrics) AlertsExpired(n int64) {
	if m != nil && n > 0 {
		m.alertsExpired.Add(float64(n))
	}
}

func (m *Metrics) PushSent(result string) {
	if m != nil {
		m.pushes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Request(method, route, status string) {
	if m != nil {
		m.requests.WithLabelValues(method, route, status).Inc()
	}
}
