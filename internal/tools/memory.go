package tools

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// memoryUser enforces the own-user rule: memory tools only operate on the
// authenticated user, for every role. An explicit user_id argument must
// match.
func memoryUser(ctx context.Context, req *pipeline.Request) (*tenantctx.Principal, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	if arg := argString(req, "user_id"); arg != "" && arg != p.UserID {
		return nil, ragerr.Authorization("memory tools operate on the authenticated user only")
	}
	return p, nil
}

func (h *handlers) getUserMemory(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := memoryUser(ctx, req)
	if err != nil {
		return nil, err
	}
	memories, err := h.Store.Memories(ctx, p.TenantID, p.UserID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"user_id":  p.UserID,
		"memories": memoryItems(memories),
		"total":    len(memories),
	}, nil
}

func (h *handlers) updateMemory(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := memoryUser(ctx, req)
	if err != nil {
		return nil, err
	}
	key := argString(req, "key")
	if key == "" {
		return nil, ragerr.Validation("key", "key is required")
	}
	content := argString(req, "content")
	if content == "" {
		return nil, ragerr.Validation("content", "content must not be empty")
	}
	m := &store.UserMemory{
		ID:       uuid.NewString(),
		TenantID: p.TenantID,
		UserID:   p.UserID,
		Key:      key,
		Content:  content,
	}
	if err := h.Store.UpsertMemory(ctx, m); err != nil {
		return nil, err
	}
	return map[string]any{
		"memory_id": m.ID,
		"key":       m.Key,
		"status":    "saved",
	}, nil
}

func (h *handlers) searchMemory(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := memoryUser(ctx, req)
	if err != nil {
		return nil, err
	}
	query := argString(req, "query")
	if query == "" {
		return nil, ragerr.Validation("query", "query must not be empty")
	}
	limit := argInt(req, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, ragerr.Validation("limit", "limit must be between 1 and 100")
	}
	memories, err := h.Store.SearchMemories(ctx, p.TenantID, p.UserID, query, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"user_id":  p.UserID,
		"memories": memoryItems(memories),
		"total":    len(memories),
	}, nil
}

func memoryItems(memories []store.UserMemory) []map[string]any {
	items := make([]map[string]any, 0, len(memories))
	for _, m := range memories {
		items = append(items, map[string]any{
			"memory_id":  m.ID,
			"key":        m.Key,
			"content":    m.Content,
			"updated_at": m.UpdatedAt.Format(time.RFC3339),
		})
	}
	return items
}
