// Package feed pushes full post-feed snapshots to live subscribers. Every
// mutation triggers a rebuild of the projected feed, and each subscriber
// holds a conflating channel: an undelivered snapshot is replaced wholesale
// by a newer one, so a slow consumer always sees the latest state and never
// blocks the publisher.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"campusconnect/internal/observability"
	"campusconnect/internal/projection"
)

// ErrHubClosed is returned by Subscribe after Shutdown.
var ErrHubClosed = errors.New("feed hub is closed")

// Snapshot is a full projected view of the post feed at one point in time.
type Snapshot struct {
	Posts       []projection.PostView `json:"posts"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// BuildFunc produces the current feed snapshot.
type BuildFunc func(ctx context.Context) (*Snapshot, error)

// Subscription is one subscriber's view of the feed stream.
type Subscription struct {
	userID string
	mu     sync.Mutex
	ch     chan *Snapshot
	closed bool
}

// Updates returns the channel snapshots arrive on. The channel is closed
// when the subscription ends.
func (s *Subscription) Updates() <-chan *Snapshot {
	return s.ch
}

// offer places snap on the channel, displacing an undelivered older
// snapshot if one is pending. The mutex serializes offer against close so
// a publish racing an unsubscribe never touches a closed channel.
func (s *Subscription) offer(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// shutdown closes the channel exactly once.
func (s *Subscription) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub fans feed snapshots out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	build  BuildFunc
	logger *observability.FeedLogger
	closed bool
}

// NewHub returns a Hub that rebuilds snapshots with build.
func NewHub(build BuildFunc) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		build:  build,
		logger: observability.NewFeedLogger(),
	}
}

// Subscribe registers a new subscriber and primes it with the current
// snapshot so clients render immediately instead of waiting for the next
// mutation.
func (h *Hub) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	snap, err := h.build(ctx)
	if err != nil {
		h.logger.LogError(ctx, err, "subscribe")
		return nil, err
	}

	sub := &Subscription{
		userID: userID,
		ch:     make(chan *Snapshot, 1),
	}
	sub.ch <- snap

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	observability.FeedSubscribers.Inc()
	h.logger.LogSubscribe(ctx, userID)
	return sub, nil
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// once per subscription.
func (h *Hub) Unsubscribe(ctx context.Context, sub *Subscription, reason string) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.shutdown()
	observability.FeedSubscribers.Dec()
	h.logger.LogUnsubscribe(ctx, sub.userID, reason)
}

// Publish rebuilds the snapshot and offers it to every subscriber.
func (h *Hub) Publish(ctx context.Context) error {
	snap, err := h.build(ctx)
	if err != nil {
		h.logger.LogError(ctx, err, "publish")
		return err
	}

	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.offer(snap)
	}

	observability.FeedSnapshotsPublished.Inc()
	h.logger.LogPublish(ctx, len(snap.Posts), len(subs))
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Shutdown closes every subscription and rejects new ones.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
		observability.FeedSubscribers.Dec()
		h.logger.LogUnsubscribe(ctx, sub.userID, "shutdown")
	}
}
