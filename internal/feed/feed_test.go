package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/projection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticBuilder(titles ...string) BuildFunc {
	var calls atomic.Int64
	return func(ctx context.Context) (*Snapshot, error) {
		n := calls.Add(1)
		posts := make([]projection.PostView, 0, len(titles))
		for _, title := range titles {
			posts = append(posts, projection.PostView{
				Post: models.Post{ID: title, Title: title, Likes: n},
			})
		}
		return &Snapshot{Posts: posts, GeneratedAt: time.Now()}, nil
	}
}

func receive(t *testing.T, sub *Subscription) *Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestHub_SubscribePrimesWithCurrentSnapshot(t *testing.T) {
	hub := NewHub(staticBuilder("p1", "p2"))
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer hub.Unsubscribe(ctx, sub, "test done")

	snap := receive(t, sub)
	require.Len(t, snap.Posts, 2)
	assert.Equal(t, "p1", snap.Posts[0].ID)
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(staticBuilder("p1"))
	ctx := context.Background()

	sub1, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)
	sub2, err := hub.Subscribe(ctx, "u2")
	require.NoError(t, err)

	receive(t, sub1)
	receive(t, sub2)

	require.NoError(t, hub.Publish(ctx))

	assert.Len(t, receive(t, sub1).Posts, 1)
	assert.Len(t, receive(t, sub2).Posts, 1)
}

func TestHub_SlowConsumerGetsLatestOnly(t *testing.T) {
	hub := NewHub(staticBuilder("p1"))
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)

	// never read the primed snapshot; publish twice more
	require.NoError(t, hub.Publish(ctx))
	require.NoError(t, hub.Publish(ctx))

	// the only pending snapshot is the newest one (builder call 3)
	snap := receive(t, sub)
	assert.Equal(t, int64(3), snap.Posts[0].Likes)

	select {
	case extra := <-sub.Updates():
		t.Fatalf("unexpected extra snapshot: %+v", extra)
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(staticBuilder("p1"))
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)
	receive(t, sub)

	hub.Unsubscribe(ctx, sub, "client gone")
	assert.Equal(t, 0, hub.SubscriberCount())

	_, ok := <-sub.Updates()
	assert.False(t, ok)

	// double-unsubscribe is a no-op
	hub.Unsubscribe(ctx, sub, "again")
}

func TestHub_PublishRacingUnsubscribe(t *testing.T) {
	hub := NewHub(staticBuilder("p1"))
	ctx := context.Background()

	// Churn subscribers while publishing. A publish that reaches a
	// subscription after its channel closed must drop the snapshot
	// instead of panicking the publisher.
	done := make(chan struct{})
	var pubErr error
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if pubErr = hub.Publish(ctx); pubErr != nil {
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		sub, err := hub.Subscribe(ctx, "u1")
		require.NoError(t, err)
		hub.Unsubscribe(ctx, sub, "client gone")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher deadlocked")
	}
	require.NoError(t, pubErr)

	// offer after close is a no-op
	sub, err := hub.Subscribe(ctx, "u2")
	require.NoError(t, err)
	hub.Unsubscribe(ctx, sub, "client gone")
	sub.offer(&Snapshot{})
	_, ok := <-sub.Updates()
	assert.False(t, ok)
}

func TestHub_BuildFailurePropagates(t *testing.T) {
	boom := errors.New("store down")
	hub := NewHub(func(ctx context.Context) (*Snapshot, error) {
		return nil, boom
	})

	_, err := hub.Subscribe(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, hub.Publish(context.Background()), boom)
}

func TestHub_ShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub(staticBuilder("p1"))
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, "u1")
	require.NoError(t, err)
	receive(t, sub)

	hub.Shutdown(ctx)

	_, ok := <-sub.Updates()
	assert.False(t, ok)

	_, err = hub.Subscribe(ctx, "u2")
	assert.ErrorIs(t, err, ErrHubClosed)
}
