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

func TestRateLimiterFixedWindow(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := rl.Allow(ctx, "t1", 3)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}

	allowed, retryAfter, err := rl.Allow(ctx, "t1", 3)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)
}

func TestRateLimiterPerTenantWindows(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c, nil)
	ctx := context.Background()

	allowed, _, err := rl.Allow(ctx, "t1", 1)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = rl.Allow(ctx, "t1", 1)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Another tenant has its own counter.
	allowed, _, err = rl.Allow(ctx, "t2", 1)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterZeroLimitDisables(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c, nil)

	allowed, retryAfter, err := rl.Allow(context.Background(), "t1", 0)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestRateLimiterFallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	rl := NewRateLimiter(NewWithClient(rdb, nil), nil)
	ctx := context.Background()

	mr.Close()

	// The local limiter starts with a full burst of `limit` tokens, so the
	// first requests still pass and the one after the burst is rejected.
	for i := 0; i < 2; i++ {
		allowed, _, err := rl.Allow(ctx, "t1", 2)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}
	allowed, _, err := rl.Allow(ctx, "t1", 2)
	require.NoError(t, err)
	assert.False(t, allowed)
}
