package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusconnect_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreQueryLatency records entity store latency by operation and collection.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusconnect_store_query_latency_seconds",
		Help:    "Entity store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// StoreRetries counts retried entity store operations.
	StoreRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusconnect_store_retries_total",
		Help: "Total number of retried entity store operations",
	}, []string{"operation"})

	// LedgerRejections counts ledger operations rejected by a precondition,
	// labelled with the operation and the reason it was refused.
	LedgerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusconnect_ledger_rejections_total",
		Help: "Total number of ledger mutations rejected by a precondition",
	}, []string{"operation", "reason"})

	// FeedSubscribers is the gauge of active feed WebSocket subscriptions.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campusconnect_feed_subscribers",
		Help: "Number of active feed WebSocket subscriptions",
	})

	// FeedSnapshotsPublished counts feed snapshots pushed to subscribers.
	FeedSnapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusconnect_feed_snapshots_published_total",
		Help: "Total number of feed snapshots published",
	})
)

// StoreMetrics records entity store latency.
type StoreMetrics struct{}

// NewStoreMetrics returns a new StoreMetrics instance.
func NewStoreMetrics() *StoreMetrics {
	return &StoreMetrics{}
}

// TrackQuery returns a function that records operation latency when called (e.g. defer).
func (m *StoreMetrics) TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreQueryLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
