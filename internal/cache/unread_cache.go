package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opengram/backend/pkg/logger"
)

// UnreadCounter caches per-user unread notification counts in Redis.
// Writers invalidate, readers fill: any path that creates, reads, or deletes
// notifications drops the key, and the next UnreadCount query repopulates it
// from the database. A nil counter is a valid no-op, so callers never have
// to branch on whether Redis is configured.
type UnreadCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewUnreadCounter wraps a Redis client. ttl bounds staleness if an
// invalidation is ever missed.
func NewUnreadCounter(rdb *redis.Client, ttl time.Duration) *UnreadCounter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UnreadCounter{rdb: rdb, ttl: ttl}
}

func unreadKey(userName string) string {
	return "notifications:unread:" + userName
}

// Get returns the cached count and whether the key was present.
func (c *UnreadCounter) Get(ctx context.Context, userName string) (int64, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	n, err := c.rdb.Get(ctx, unreadKey(userName)).Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Set stores a freshly computed count with the configured TTL.
func (c *UnreadCounter) Set(ctx context.Context, userName string, count int64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, unreadKey(userName), count, c.ttl).Err(); err != nil {
		logger.Warn("unread cache set failed", zap.String("user", userName), zap.Error(err))
	}
}

// Invalidate drops the cached count after a write touching the user's
// notifications.
func (c *UnreadCounter) Invalidate(ctx context.Context, userName string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, unreadKey(userName)).Err(); err != nil {
		logger.Warn("unread cache invalidation failed", zap.String("user", userName), zap.Error(err))
	}
}
