package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengram/backend/internal/cache"
)

// With Redis attached, new notifications must drop the cached count so the
// next read reflects them.
func TestUnreadCount_CacheInvalidatedOnNewNotification(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	env.notifier.unread = cache.NewUnreadCounter(rdb, time.Minute)

	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addPost("owner", "post-1")

	ctx := context.Background()

	// Prime the cache at zero.
	count, err := env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, env.notifier.OnLike(ctx, "liker", "post-1", true))

	count, err = env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Reversal removes the notification and drops the cache again.
	require.NoError(t, env.notifier.OnLike(ctx, "liker", "post-1", false))
	count, err = env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Zero(t, count)
}
