// Package metrics holds the Prometheus instruments of the company service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CompaniesCreated    prometheus.Counter
	CompaniesUpdated    prometheus.Counter
	CompaniesDeleted    *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

// New registers the instruments with reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CompaniesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "companies_created_total",
			Help: "Total number of companies created",
		}),
		CompaniesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "companies_updated_total",
			Help: "Total number of companies updated",
		}),
		CompaniesDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "companies_deleted_total",
			Help: "Total number of companies deleted, by mode",
		}, []string{"mode"}),
		NotificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "company_notifications_failed_total",
			Help: "Notifications that could not be rendered or delivered",
		}, []string{"template"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "company_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.CompaniesCreated.Inc()
}

func (m *Metrics) IncrementUpdated() {
	m.CompaniesUpdated.Inc()
}

// IncrementDeleted counts a deletion; mode is "hard" or "soft".
func (m *Metrics) IncrementDeleted(mode string) {
	m.CompaniesDeleted.WithLabelValues(mode).Inc()
}

func (m *Metrics) IncrementNotificationFailed(template string) {
	m.NotificationsFailed.WithLabelValues(template).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, start time.Time) {
	m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}
