// Package metrics holds the service's Prometheus collectors and the JSON
// summary served next to the exposition endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthFailuresTotal  *prometheus.CounterVec
	AuthSuccessesTotal *prometheus.CounterVec

	RateLimitRejectionsTotal prometheus.Counter

	// Application errors by kind, as returned to clients.
	AppErrorsTotal *prometheus.CounterVec

	MoodEntriesCreatedTotal prometheus.Counter
	IntegrityOpsTotal       *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		AuthFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_auth_failures_total",
			Help: "Total number of rejected requests by reason.",
		}, []string{"reason"}),

		AuthSuccessesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_auth_successes_total",
			Help: "Total number of successful signups and logins.",
		}, []string{"kind"}),

		RateLimitRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_ratelimit_rejections_total",
			Help: "Total number of requests rejected by the credential rate limiter.",
		}),

		AppErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_app_errors_total",
			Help: "Total number of error responses by error kind.",
		}, []string{"kind"}),

		MoodEntriesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_mood_entries_created_total",
			Help: "Total number of mood entries created.",
		}),

		IntegrityOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_integrity_operations_total",
			Help: "Total number of cascading operations by outcome.",
		}, []string{"op", "outcome"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulse_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.RateLimitRejectionsTotal,
		m.AppErrorsTotal,
		m.MoodEntriesCreatedTotal,
		m.IntegrityOpsTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Exposition serves the registry in the Prometheus text format.
func (m *Metrics) Exposition() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTP records one served request. route is the chi route pattern so
// path ids do not explode cardinality.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncAuthFailure increments the auth failure counter for reason.
func (m *Metrics) IncAuthFailure(reason string) {
	m.AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// IncAuthSuccess increments the auth success counter ("signup" or "login").
func (m *Metrics) IncAuthSuccess(kind string) {
	m.AuthSuccessesTotal.WithLabelValues(kind).Inc()
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection() {
	m.RateLimitRejectionsTotal.Inc()
}

// IncAppError counts an error response of the given kind.
func (m *Metrics) IncAppError(kind string) {
	m.AppErrorsTotal.WithLabelValues(kind).Inc()
}

// IncMoodEntryCreated counts a stored mood entry.
func (m *Metrics) IncMoodEntryCreated() {
	m.MoodEntriesCreatedTotal.Inc()
}

// ObserveIntegrity counts a cascading operation. Its signature matches the
// coordinator's observer hook.
func (m *Metrics) ObserveIntegrity(op, outcome string) {
	m.IntegrityOpsTotal.WithLabelValues(op, outcome).Inc()
}
