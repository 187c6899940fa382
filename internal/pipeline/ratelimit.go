package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/cache"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// RateLimitStage enforces the tenant's requests-per-minute quota from its
// configuration. uber_admin bypasses limits so an exhausted quota cannot
// lock out operational tooling.
func RateLimitStage(limiter *cache.RateLimiter, st *store.Store, defaultRPM int, logger *zap.Logger) Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (map[string]any, error) {
			p, err := tenantctx.FromContext(ctx)
			if err != nil {
				return nil, err
			}
			if p.Role == tenantctx.RoleUberAdmin {
				return next(ctx, req)
			}

			limit := defaultRPM
			if cfg, err := st.TenantConfig(ctx, p.TenantID); err == nil {
				if !cfg.RateLimitEnabled {
					return next(ctx, req)
				}
				if cfg.RequestsPerMinute > 0 {
					limit = cfg.RequestsPerMinute
				}
			}

			allowed, retryAfter, err := limiter.Allow(ctx, p.TenantID, limit)
			if err != nil {
				return nil, err
			}
			if !allowed {
				logger.Warn("rate limit exceeded",
					zap.String("tenant_id", p.TenantID),
					zap.String("tool", req.Tool),
					zap.Duration("retry_after", retryAfter))
				rlErr := ragerr.RateLimited(p.TenantID)
				rlErr.Message += ", retry after " + retryAfter.Truncate(time.Second).String()
				return nil, rlErr
			}
			return next(ctx, req)
		}
	}
}
