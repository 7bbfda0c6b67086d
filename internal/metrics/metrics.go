package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, route, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LoginAttempts counts login attempts by result (success, invalid, error).
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	// AuditWrites counts audit rows committed by action tag.
	AuditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_audit_writes_total",
			Help: "Audit log rows written by action",
		},
		[]string{"action"},
	)

	// IdentityGauge mirrors the analytics summary (users, roles, active_users_7d).
	IdentityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_identity_count",
			Help: "Identity store counts from the last analytics refresh",
		},
		[]string{"kind"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, LoginAttempts, AuditWrites, IdentityGauge)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /api/v1/superadmin/users/123 -> /api/v1/superadmin/users/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncLogin increments the login counter for result.
func IncLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// IncAudit increments the audit counter for a committed action.
func IncAudit(action string) {
	AuditWrites.WithLabelValues(action).Inc()
}

// SetIdentityCounts publishes the latest analytics counts.
func SetIdentityCounts(users, roles, active int) {
	IdentityGauge.WithLabelValues("users").Set(float64(users))
	IdentityGauge.WithLabelValues("roles").Set(float64(roles))
	IdentityGauge.WithLabelValues("active_users_7d").Set(float64(active))
}
