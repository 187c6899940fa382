package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-tenant fixed window of requests per minute
// shared across instances via Redis. When Redis is unreachable it degrades
// to an in-process limiter so a cache outage cannot take down the API.
type RateLimiter struct {
	cache  *Client
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter builds the limiter on top of the shared cache client.
func NewRateLimiter(cache *Client, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		cache:  cache,
		logger: logger,
		local:  make(map[string]*rate.Limiter),
	}
}

// Allow records one request for the tenant and reports whether it fits in
// the current one-minute window of limit requests. retryAfter is the time
// until the window resets when the request is rejected.
func (r *RateLimiter) Allow(ctx context.Context, tenantID string, limit int) (allowed bool, retryAfter time.Duration, err error) {
	if limit <= 0 {
		return true, 0, nil
	}
	now := time.Now()
	window := now.Unix() / 60
	key := fmt.Sprintf("rl:%s:%d", tenantID, window)

	count, err := r.cache.rdb.Incr(ctx, key).Result()
	if err != nil {
		r.logger.Warn("rate limiter falling back to local window",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return r.allowLocal(tenantID, limit), time.Minute, nil
	}
	if count == 1 {
		// First hit of the window; expire a little past the window edge so
		// clock skew between instances cannot drop the key early.
		r.cache.rdb.Expire(ctx, key, 90*time.Second)
	}
	if count > int64(limit) {
		reset := time.Unix((window+1)*60, 0)
		return false, time.Until(reset), nil
	}
	return true, 0, nil
}

func (r *RateLimiter) allowLocal(tenantID string, limit int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.local[tenantID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(limit)/60.0), limit)
		r.local[tenantID] = lim
	}
	return lim.Allow()
}
