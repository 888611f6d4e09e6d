package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trackadmission"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// DBConnectAttempts counts dial attempts made by the connection manager by result (ok|error).
	DBConnectAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "db", Name: "connect_attempts_total", Help: "Database connection attempts by result."},
		[]string{"result"},
	)
	// DBResets counts forced connection resets by reason (operation|ping).
	DBResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "db", Name: "resets_total", Help: "Connection state resets by reason."},
		[]string{"reason"},
	)
	DBPingFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "db", Name: "ping_failures_total", Help: "Failed keep-alive pings."},
	)

	ContentVersions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "content", Name: "version_appends_total", Help: "Version append outcomes (appended|no_change|conflict)."},
		[]string{"outcome"},
	)
	ContentVersionsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "content", Name: "versions_purged_total", Help: "Version entries removed by retention."},
	)

	TrendingEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "trending", Name: "evictions_total", Help: "Trending entries evicted to keep the slot cap."},
	)

	LeadsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "leads", Name: "submitted_total", Help: "Lead form submissions stored."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DBConnectAttempts)
	reg.MustRegister(DBResets)
	reg.MustRegister(DBPingFailures)
	reg.MustRegister(ContentVersions)
	reg.MustRegister(ContentVersionsPurged)
	reg.MustRegister(TrendingEvicted)
	reg.MustRegister(LeadsSubmitted)
}
