package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Upstream backend metrics
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests to the upstream backend",
		},
		[]string{"endpoint", "outcome", "service"},
	)

	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream backend requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"endpoint", "service"},
	)

	// Payment metrics
	paymentSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_submissions_total",
			Help: "Total number of payment submission attempts",
		},
		[]string{"result", "service"},
	)

	// Aggregation metrics
	aggregationSkippedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_skipped_records_total",
			Help: "Records excluded from aggregation due to missing or unparseable payment dates",
		},
		[]string{"view", "service"},
	)

	// Notification poller metrics
	pollerTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_poller_ticks_total",
			Help: "Total number of notification poller ticks",
		},
		[]string{"result", "service"},
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "status", "service"},
	)

	// Audit log metrics
	auditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of audit events",
		},
		[]string{"event_type", "success", "service"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

var registerOnce sync.Once

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Metrics live in package vars; register them once per process.
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			upstreamRequestsTotal,
			upstreamRequestDuration,
			paymentSubmissionsTotal,
			aggregationSkippedRecords,
			pollerTicksTotal,
			authAttemptsTotal,
			auditEventsTotal,
		)
	})

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordUpstreamRequest records upstream backend request metrics
func (m *MetricsCollector) RecordUpstreamRequest(endpoint, outcome string, duration time.Duration) {
	upstreamRequestsTotal.WithLabelValues(endpoint, outcome, m.serviceName).Inc()
	upstreamRequestDuration.WithLabelValues(endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordPaymentSubmission records payment submission metrics
func (m *MetricsCollector) RecordPaymentSubmission(result string) {
	paymentSubmissionsTotal.WithLabelValues(result, m.serviceName).Inc()
}

// RecordSkippedRecords records how many records an aggregation pass dropped
func (m *MetricsCollector) RecordSkippedRecords(view string, count int) {
	if count > 0 {
		aggregationSkippedRecords.WithLabelValues(view, m.serviceName).Add(float64(count))
	}
}

// RecordPollerTick records a notification poller tick outcome
func (m *MetricsCollector) RecordPollerTick(result string) {
	pollerTicksTotal.WithLabelValues(result, m.serviceName).Inc()
}

// RecordAuthAttempt records authentication attempt metrics
func (m *MetricsCollector) RecordAuthAttempt(method, status string) {
	authAttemptsTotal.WithLabelValues(method, status, m.serviceName).Inc()
}

// RecordAuditEvent records audit event metrics
func (m *MetricsCollector) RecordAuditEvent(eventType string, success bool) {
	successStr := strconv.FormatBool(success)
	auditEventsTotal.WithLabelValues(eventType, successStr, m.serviceName).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
