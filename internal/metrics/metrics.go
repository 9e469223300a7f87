// Package metrics exposes Prometheus collectors for the HTTP layer, the
// store and the content workflows. Collectors register with the default
// registry and are served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstream_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidstream_http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidstream_db_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_db_query_errors_total",
			Help: "Store operation failures by error kind",
		},
		[]string{"operation", "kind"},
	)

	// Content Metrics
	VideoViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstream_video_views_total",
			Help: "Total number of recorded video views",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_uploads_total",
			Help: "Thumbnail uploads by storage backend and result",
		},
		[]string{"backend", "result"}, // "ok", "rejected", "error"
	)

	CommentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_comments_total",
			Help: "Comments and replies created",
		},
		[]string{"type"}, // "comment", "reply"
	)

	MentionsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstream_mentions_resolved_total",
			Help: "Replies whose @mention matched an existing user",
		},
	)

	// Auth Metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidstream_login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstream_registrations_total",
			Help: "Accounts created",
		},
	)

	SessionsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstream_sessions_cleaned_total",
			Help: "Expired sessions removed",
		},
	)

	ActivityLogFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidstream_activity_log_failures_total",
			Help: "Audit entries that could not be written",
		},
	)
)

// RecordDBQuery records a store operation and, when it failed, its error kind
func RecordDBQuery(operation string, duration time.Duration, errKind string) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if errKind != "" {
		DBQueryErrors.WithLabelValues(operation, errKind).Inc()
	}
}

// RecordHTTPRequest records a served request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpload records the outcome of a thumbnail upload
func RecordUpload(backend, result string) {
	UploadsTotal.WithLabelValues(backend, result).Inc()
}

// RecordLogin records a login attempt
func RecordLogin(success bool) {
	if success {
		LoginAttempts.WithLabelValues("success").Inc()
	} else {
		LoginAttempts.WithLabelValues("failure").Inc()
	}
}
