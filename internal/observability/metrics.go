package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	notificationsSwept   *prometheus.CounterVec
	notificationsQueued  *prometheus.CounterVec
	pushDeliveriesTotal  *prometheus.CounterVec
	assignmentsDelivered *prometheus.CounterVec
	assignmentsCompleted *prometheus.CounterVec
	sweepDurationSeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors shared by the API and the sweeper.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		notificationsSwept = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_swept_total",
			Help: "Scheduled notifications processed by the sweeper, by outcome.",
		}, []string{"kind", "outcome"})

		notificationsQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_scheduled_total",
			Help: "Scheduled notifications created.",
		}, []string{"kind"})

		pushDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Push messages handed to the transport, by outcome.",
		}, []string{"transport", "outcome"})

		assignmentsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignments_delivered_total",
			Help: "Assignment records created by teacher deliveries.",
		}, []string{"kind"})

		assignmentsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignments_completed_total",
			Help: "Assignment records completed by students.",
		}, []string{"kind"})

		sweepDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_sweep_duration_seconds",
			Help:    "Wall time of one sweep over due notifications.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			notificationsSwept,
			notificationsQueued,
			pushDeliveriesTotal,
			assignmentsDelivered,
			assignmentsCompleted,
			sweepDurationSeconds,
		)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the request latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// NotificationsSwept counts sweep outcomes per notification kind.
func NotificationsSwept() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsSwept
}

// NotificationsScheduled counts created scheduled notifications.
func NotificationsScheduled() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsQueued
}

// PushDeliveries counts push attempts per transport.
func PushDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return pushDeliveriesTotal
}

func AssignmentsDelivered() *prometheus.CounterVec {
	RegisterMetrics()
	return assignmentsDelivered
}

func AssignmentsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return assignmentsCompleted
}

// SweepDuration observes how long a sweep took.
func SweepDuration() prometheus.Histogram {
	RegisterMetrics()
	return sweepDurationSeconds
}

// MetricsHandler serves the default registry, registering the collectors
// first so a scrape before any traffic still lists them.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
