package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// habit mutations by operation: create, toggle, delete
	HabitMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_mutation_count",
			Help: "Total number of habit mutations applied in memory",
		},
		[]string{"op"},
	)

	// 持久化延迟（秒）
	PersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habit_persist_duration_seconds",
			Help:    "Whole-collection persist duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"backend", "op", "status"},
	)

	StorageErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_storage_error_count",
			Help: "Storage failures by operation and classified kind",
		},
		[]string{"op", "kind"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Postgres queries slower than the configured threshold",
		},
		[]string{"command"},
	)

	EventPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habit_event_publish_count",
			Help: "Domain events handed to the broker",
		},
		[]string{"routing_key", "status"}, // status: success, failed, skipped
	)
)

func IncrementHabitMutation(op string) {
	HabitMutationCount.WithLabelValues(op).Inc()
}

func RecordPersistDuration(backend, op, status string, duration time.Duration) {
	PersistDuration.WithLabelValues(backend, op, status).Observe(duration.Seconds())
}

func IncrementStorageError(op, kind string) {
	StorageErrorCount.WithLabelValues(op, kind).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementSlowQuery(command string) {
	SlowQueryCount.WithLabelValues(command).Inc()
}

func IncrementEventPublish(routingKey, status string) {
	EventPublishCount.WithLabelValues(routingKey, status).Inc()
}
