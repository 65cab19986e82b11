package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "absensi_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	attendanceSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_attendance_submissions_total",
		Help: "Check-in submissions by outcome",
	}, []string{"result"})

	accessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_access_decisions_total",
		Help: "Access gate decisions by page class and denial reason",
	}, []string{"page", "reason"})

	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "absensi_session_transitions_total",
		Help: "Session transitions by kind: signed_in, signed_out or session_ended",
	}, []string{"kind"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveSubmission counts a check-in attempt; result is recorded, incomplete, duplicate or error
func ObserveSubmission(result string) {
	attendanceSubmissions.WithLabelValues(result).Inc()
}

// ObserveAccess counts a gate decision. An empty reason means allowed.
func ObserveAccess(page, reason string) {
	if reason == "" {
		reason = "Allowed"
	}
	accessDecisions.WithLabelValues(page, reason).Inc()
}

// ObserveSessionTransition counts one published session transition
func ObserveSessionTransition(kind string) {
	sessionTransitions.WithLabelValues(kind).Inc()
}

// GinMiddleware instruments requests with Prometheus metrics, labelled by route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
