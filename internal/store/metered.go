package store

import (
	"context"

	"campusconnect/internal/observability"
)

// meteredStore wraps a driver and records per-operation latency.
type meteredStore struct {
	inner   EntityStore
	metrics *observability.StoreMetrics
}

// WithMetrics returns s instrumented with operation latency histograms.
func WithMetrics(s EntityStore) EntityStore {
	return &meteredStore{inner: s, metrics: observability.NewStoreMetrics()}
}

func (m *meteredStore) Create(ctx context.Context, collection string, doc *Document) error {
	defer m.metrics.TrackQuery("create", collection)()
	return m.inner.Create(ctx, collection, doc)
}

func (m *meteredStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	defer m.metrics.TrackQuery("get", collection)()
	return m.inner.Get(ctx, collection, id)
}

func (m *meteredStore) Query(ctx context.Context, collection string, opts QueryOptions) ([]*Document, error) {
	defer m.metrics.TrackQuery("query", collection)()
	return m.inner.Query(ctx, collection, opts)
}

func (m *meteredStore) AtomicUpdate(ctx context.Context, collection, id string, up Update) error {
	defer m.metrics.TrackQuery("atomic_update", collection)()
	return m.inner.AtomicUpdate(ctx, collection, id, up)
}
