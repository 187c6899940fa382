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

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewWithClient(rdb, nil), mr
}

func TestGetSetJSON(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var missed payload
	assert.ErrorIs(t, c.GetJSON(ctx, "absent", &missed), ErrMiss)

	require.NoError(t, c.SetJSON(ctx, "k1", payload{Name: "a", Count: 2}, time.Minute))
	var got payload
	require.NoError(t, c.GetJSON(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "a", Count: 2}, got)
}

func TestSetJSONExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k1", "v", 30*time.Second))
	mr.FastForward(time.Minute)

	var got string
	assert.ErrorIs(t, c.GetJSON(ctx, "k1", &got), ErrMiss)
}

func TestDeleteByPrefix(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "health:t1", "a", time.Minute))
	require.NoError(t, c.SetJSON(ctx, "health:t2", "b", time.Minute))
	require.NoError(t, c.SetJSON(ctx, "usage:t1", "c", time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "health:"))

	var got string
	assert.ErrorIs(t, c.GetJSON(ctx, "health:t1", &got), ErrMiss)
	assert.ErrorIs(t, c.GetJSON(ctx, "health:t2", &got), ErrMiss)
	assert.NoError(t, c.GetJSON(ctx, "usage:t1", &got))
}

func TestTenantKey(t *testing.T) {
	assert.Equal(t, "health:t1", TenantKey("t1", "health"))
	assert.Equal(t, "usage:t1:2024-01", TenantKey("t1", "usage", "2024-01"))
}

func TestPing(t *testing.T) {
	c, mr := newTestClient(t)
	assert.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
