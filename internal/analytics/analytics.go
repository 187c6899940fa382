// Package analytics aggregates usage, search and memory statistics from the
// audit log. Reports are cached for five minutes per (tenant, report,
// filter) key.
package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/cache"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
)

const reportTTL = 5 * time.Minute

// Filter narrows an analytics query.
type Filter struct {
	From *time.Time
	To   *time.Time
	// Metrics optionally restricts which aggregate keys are returned.
	Metrics []string
}

// Service computes audit-derived aggregates.
type Service struct {
	store  *store.Store
	cache  *cache.Client
	logger *zap.Logger
}

// New builds the service.
func New(st *store.Store, c *cache.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, cache: c, logger: logger}
}

// UsageStats aggregates all tool activity for the tenant.
func (s *Service) UsageStats(ctx context.Context, tenantID string, f Filter) (map[string]any, error) {
	return s.report(ctx, tenantID, "usage_stats", "tool.%", f)
}

// SearchAnalytics aggregates search tool activity.
func (s *Service) SearchAnalytics(ctx context.Context, tenantID string, f Filter) (map[string]any, error) {
	return s.report(ctx, tenantID, "search_analytics", "tool.rag_search%", f)
}

// MemoryAnalytics aggregates memory tool activity.
func (s *Service) MemoryAnalytics(ctx context.Context, tenantID string, f Filter) (map[string]any, error) {
	return s.report(ctx, tenantID, "memory_analytics", "tool.mem0_%", f)
}

func (s *Service) report(ctx context.Context, tenantID, name, actionPattern string, f Filter) (map[string]any, error) {
	key := cache.TenantKey(tenantID, name, filterKey(f))
	if s.cache != nil {
		var cached map[string]any
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	records, err := s.store.QueryAudit(ctx, tenantID, store.AuditFilter{
		ActionPattern: actionPattern,
		From:          f.From,
		To:            f.To,
		Limit:         1000,
	})
	if err != nil {
		return nil, err
	}

	total := len(records)
	errors := 0
	byAction := make(map[string]int)
	byUser := make(map[string]int)
	var totalDuration int64
	for _, r := range records {
		byAction[r.Action]++
		if r.UserID != nil {
			byUser[*r.UserID]++
		}
		if r.Status == "error" {
			errors++
		}
		totalDuration += r.DurationMS
	}

	out := map[string]any{
		"tenant_id":      tenantID,
		"total_requests": total,
		"error_count":    errors,
		"by_action":      byAction,
		"unique_users":   len(byUser),
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if total > 0 {
		out["error_rate"] = float64(errors) / float64(total)
		out["avg_duration_ms"] = float64(totalDuration) / float64(total)
	}
	if len(f.Metrics) > 0 {
		out = restrictMetrics(out, f.Metrics)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, reportTTL); err != nil {
			s.logger.Warn("caching analytics report failed",
				zap.String("report", name), zap.Error(err))
		}
	}
	return out, nil
}

// restrictMetrics keeps only the requested keys plus the identifying fields.
func restrictMetrics(full map[string]any, metrics []string) map[string]any {
	out := map[string]any{
		"tenant_id":    full["tenant_id"],
		"generated_at": full["generated_at"],
	}
	for _, m := range metrics {
		if v, ok := full[m]; ok {
			out[m] = v
		}
	}
	return out
}

func filterKey(f Filter) string {
	from, to := "-", "-"
	if f.From != nil {
		from = f.From.UTC().Format("20060102T150405")
	}
	if f.To != nil {
		to = f.To.UTC().Format("20060102T150405")
	}
	return fmt.Sprintf("%s:%s:%d", from, to, len(f.Metrics))
}
