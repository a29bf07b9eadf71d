package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%s"
	PostKeyPrefix  = "post:%s"
	GroupKeyPrefix = "group:%s"
	EventKeyPrefix = "event:%s"
	FeedKey        = "feed:posts"
)

const (
	UserTTL  = 5 * time.Minute
	PostTTL  = 30 * time.Minute
	GroupTTL = 10 * time.Minute
	EventTTL = 10 * time.Minute
	FeedTTL  = 1 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID string) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func GroupKey(groupID string) string {
	return fmt.Sprintf(GroupKeyPrefix, groupID)
}

func EventKey(eventID string) string {
	return fmt.Sprintf(EventKeyPrefix, eventID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID string) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateGroup(ctx context.Context, groupID string) {
	Invalidate(ctx, GroupKey(groupID))
}

func InvalidateEvent(ctx context.Context, eventID string) {
	Invalidate(ctx, EventKey(eventID))
}

func InvalidateFeed(ctx context.Context) {
	Invalidate(ctx, FeedKey)
}
