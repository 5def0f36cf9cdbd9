package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "respawn_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "respawn_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache-aside lookups by key family and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "respawn_cache_lookups_total",
		Help: "Cache lookups by key family and result",
	}, []string{"family", "result"})

	// AnalyticsDuration records how long an analytics report took to build.
	AnalyticsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "respawn_analytics_build_seconds",
		Help:    "Time spent building analytics reports",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"range"})

	// DomainEvents counts community activity by kind (review_created, vote_cast, report_filed, ...).
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "respawn_domain_events_total",
		Help: "Community activity events by kind",
	}, []string{"event"})
)

// Domain event labels.
const (
	EventUserRegistered  = "user_registered"
	EventLoginFailed     = "login_failed"
	EventReviewCreated   = "review_created"
	EventCommentCreated  = "comment_created"
	EventVoteCast        = "vote_cast"
	EventListCreated     = "list_created"
	EventFollowCreated   = "follow_created"
	EventReportFiled     = "report_filed"
	EventModerationActed = "moderation_action"
)

// DatabaseMetrics records query latency for a named table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics for the given table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

// RecordCacheLookup increments the cache lookup counter.
func RecordCacheLookup(family, result string) {
	CacheLookups.WithLabelValues(family, result).Inc()
}
