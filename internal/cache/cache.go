// Package cache wraps Redis for response caching and per-tenant request
// rate limiting.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// ErrMiss reports a cache miss.
var ErrMiss = errors.New("cache miss")

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps a Redis connection with JSON helpers.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New connects to Redis. The connection is verified lazily; callers use
// Ping for an eager probe.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{rdb: rdb, logger: logger}
}

// NewWithClient wraps an existing Redis client. Used by tests with miniredis.
func NewWithClient(rdb *redis.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{rdb: rdb, logger: logger}
}

// GetJSON loads key into dest. Returns ErrMiss when absent.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return ragerr.Transient(err, "reading cache key %s", key)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return ragerr.Internal(err, "decoding cache key %s", key)
	}
	return nil
}

// SetJSON stores value under key with a TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return ragerr.Internal(err, "encoding cache key %s", key)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return ragerr.Transient(err, "writing cache key %s", key)
	}
	return nil
}

// Delete removes keys. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return ragerr.Transient(err, "deleting cache keys")
	}
	return nil
}

// DeleteByPrefix removes all keys matching prefix*. Uses SCAN to avoid
// blocking the server.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return ragerr.Transient(err, "scanning cache prefix %s", prefix)
	}
	return c.Delete(ctx, keys...)
}

// TenantKey builds a tenant-scoped cache key.
func TenantKey(tenantID, kind string, parts ...string) string {
	key := fmt.Sprintf("%s:%s", kind, tenantID)
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Ping probes the connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return ragerr.Transient(err, "redis unreachable")
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }
