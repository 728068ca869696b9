package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter(t *testing.T) (*UnreadCounter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewUnreadCounter(rdb, time.Minute), mr
}

func TestUnreadCounter_SetGetInvalidate(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()

	_, ok := counter.Get(ctx, "alice")
	assert.False(t, ok, "empty cache misses")

	counter.Set(ctx, "alice", 7)
	n, ok := counter.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, int64(7), n)

	counter.Invalidate(ctx, "alice")
	_, ok = counter.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestUnreadCounter_KeysAreScopedPerUser(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()

	counter.Set(ctx, "alice", 1)
	counter.Set(ctx, "bob", 2)
	counter.Invalidate(ctx, "alice")

	_, ok := counter.Get(ctx, "alice")
	assert.False(t, ok)
	n, ok := counter.Get(ctx, "bob")
	require.True(t, ok)
	assert.Equal(t, int64(2), n)
}

func TestUnreadCounter_EntriesExpire(t *testing.T) {
	counter, mr := newTestCounter(t)
	ctx := context.Background()

	counter.Set(ctx, "alice", 3)
	mr.FastForward(2 * time.Minute)

	_, ok := counter.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestUnreadCounter_NilIsSafe(t *testing.T) {
	var counter *UnreadCounter
	ctx := context.Background()

	counter.Set(ctx, "alice", 1)
	counter.Invalidate(ctx, "alice")
	_, ok := counter.Get(ctx, "alice")
	assert.False(t, ok)
}
