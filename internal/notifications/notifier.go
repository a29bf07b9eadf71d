// Package notifications bridges store mutations to live feed rebuilds over
// Redis pub/sub, so every API instance sees changes made through any of them.
package notifications

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
)

// FeedChannel carries change notices for the post feed.
const FeedChannel = "feed:changes"

// Notifier publishes and consumes feed change notices. A nil Redis client
// disables it; publishes become no-ops and no subscriber is started.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishFeedChange announces that the post feed changed. The payload names
// the mutation kind ("post_created", "post_liked", ...) for log consumers;
// subscribers rebuild the full snapshot regardless.
func (n *Notifier) PublishFeedChange(ctx context.Context, kind string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, FeedChannel, kind).Err()
}

// StartFeedSubscriber subscribes to the feed channel and calls onChange for
// each notice until ctx is cancelled.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onChange func(kind string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in FeedSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onChange(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
