// Package metrics provides Prometheus metrics for the jshell server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jshell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jshell_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Shell command metrics
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jshell_commands_total",
			Help: "Total number of executed shell commands",
		},
		[]string{"command", "status"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jshell_command_duration_seconds",
			Help:    "Shell command execution time in seconds",
			Buckets: []float64{.00001, .0001, .001, .01, .1},
		},
		[]string{"command"},
	)

	// Session metrics
	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jshell_sessions_active",
			Help: "Number of live shell sessions",
		},
	)

	sessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jshell_sessions_created_total",
			Help: "Total number of created shell sessions",
		},
	)

	sessionsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jshell_sessions_closed_total",
			Help: "Total number of closed shell sessions",
		},
		[]string{"reason"},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jshell_auth_attempts_total",
			Help: "Total token verification attempts",
		},
		[]string{"result"},
	)

	// Audit log metrics
	auditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jshell_audit_writes_total",
			Help: "Total audit log writes",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// knownCommands bounds the command label; anything else is "unknown".
var knownCommands = map[string]bool{
	"mkdir": true,
	"cd":    true,
	"pwd":   true,
	"ls":    true,
	"cat":   true,
	"ln":    true,
	"echo":  true,
	"exit":  true,
}

func commandLabel(command string) string {
	switch {
	case command == "":
		return "invalid"
	case knownCommands[command]:
		return command
	default:
		return "unknown"
	}
}

// RecordCommand records one executed shell command. Lines that fail to
// parse are labelled "invalid".
func RecordCommand(command string, duration time.Duration, success bool) {
	command = commandLabel(command)
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
	commandsTotal.WithLabelValues(command, status(success)).Inc()
}

// SetActiveSessions sets the number of live sessions.
func SetActiveSessions(count int) {
	sessionsActive.Set(float64(count))
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	sessionsCreatedTotal.Inc()
}

// RecordSessionClosed counts a closed session. reason is "deleted",
// "expired" or "exit".
func RecordSessionClosed(reason string) {
	sessionsClosedTotal.WithLabelValues(reason).Inc()
}

// RecordAuthAttempt records a token verification.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordAuditWrite records an audit log write.
func RecordAuditWrite(success bool) {
	auditWritesTotal.WithLabelValues(status(success)).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
