// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Login outcomes.
const (
	LoginSuccess      = "success"
	LoginInvalidInput = "invalid_input"
	LoginFailure      = "invalid_credentials"
	LoginError        = "error"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantando",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plantando",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantando",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	activitiesRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plantando",
		Subsystem: "activity",
		Name:      "records_created_total",
		Help:      "Activity records created.",
	})

	eventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantando",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Domain events that could not be delivered, by event type.",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, loginAttempts, activitiesRecorded, eventsFailed)
}

// ObserveRequest records one served request. route is the matched chi
// pattern, never the raw path, to keep label cardinality bounded.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func RecordActivityCreated() {
	activitiesRecorded.Inc()
}

func RecordEventFailure(eventType string) {
	eventsFailed.WithLabelValues(eventType).Inc()
}
