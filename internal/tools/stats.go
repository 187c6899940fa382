package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/analytics"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func (h *handlers) queryAuditLogs(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	f := store.AuditFilter{
		ActionPattern: argString(req, "action_pattern"),
		From:          argTime(req.Args, "from"),
		To:            argTime(req.Args, "to"),
		Limit:         argInt(req, "limit", 100),
		Offset:        argInt(req, "offset", 0),
	}
	records, err := h.Store.QueryAudit(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(records))
	for _, r := range records {
		item := map[string]any{
			"log_id":        r.ID,
			"action":        r.Action,
			"resource_type": r.ResourceType,
			"resource_id":   r.ResourceID,
			"status":        r.Status,
			"duration_ms":   r.DurationMS,
			"timestamp":     r.Timestamp.Format(time.RFC3339),
		}
		if r.UserID != nil {
			item["user_id"] = *r.UserID
		}
		if len(r.Details) > 0 {
			var details any
			if err := json.Unmarshal(r.Details, &details); err == nil {
				item["details"] = details
			}
		}
		items = append(items, item)
	}
	return map[string]any{"logs": items, "total": len(items)}, nil
}

func analyticsFilter(req *pipeline.Request) analytics.Filter {
	return analytics.Filter{
		From:    argTime(req.Args, "from"),
		To:      argTime(req.Args, "to"),
		Metrics: argStringSlice(req.Args, "metrics"),
	}
}

func (h *handlers) usageStats(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.Analytics.UsageStats(ctx, tenantID, analyticsFilter(req))
}

func (h *handlers) searchAnalytics(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.Analytics.SearchAnalytics(ctx, tenantID, analyticsFilter(req))
}

func (h *handlers) memoryAnalytics(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.Analytics.MemoryAnalytics(ctx, tenantID, analyticsFilter(req))
}

func (h *handlers) tenantHealth(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	report, err := h.Health.Check(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out, err := toMap(report)
	if err != nil {
		return nil, err
	}
	out["tenant_id"] = tenantID
	out["document_count"], _ = h.Store.CountActiveDocuments(ctx, tenantID)
	return out, nil
}

func (h *handlers) systemHealth(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	if _, err := tenantctx.FromContext(ctx); err != nil {
		return nil, err
	}
	report, err := h.Health.Check(ctx, "")
	if err != nil {
		return nil, err
	}
	return toMap(report)
}
