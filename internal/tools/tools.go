// Package tools implements the leaf tool handlers behind the dispatch
// pipeline: ingestion, retrieval, search, memory, analytics, health,
// backup lifecycle and tenant administration.
package tools

import (
	"time"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/analytics"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/backup"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/dispatch"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/embeddings"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/health"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/objectstore"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/search"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/vectorstore"
)

// Deps carries every backend and service the handlers need.
type Deps struct {
	Store     *store.Store
	Vector    vectorstore.Index
	Keyword   keyword.Index
	Objects   *objectstore.Client
	Embedder  embeddings.Provider
	Engine    *search.Engine
	Backup    *backup.Service
	Health    *health.Checker
	Analytics *analytics.Service
	Logger    *zap.Logger
}

// RegisterAll wires every tool handler into the dispatcher.
func RegisterAll(d *dispatch.Dispatcher, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &handlers{Deps: deps}

	d.Register("rag_list_tools", h.listTools(d))
	d.Register("rag_list_templates", h.listTemplates)
	d.Register("rag_get_template", h.getTemplate)

	d.Register("rag_ingest", h.ingest)
	d.Register("rag_get_document", h.getDocument)
	d.Register("rag_list_documents", h.listDocuments)
	d.Register("rag_delete_document", h.deleteDocument)
	d.Register("rag_search", h.search)

	d.Register("mem0_get_user_memory", h.getUserMemory)
	d.Register("mem0_update_memory", h.updateMemory)
	d.Register("mem0_search_memory", h.searchMemory)

	d.Register("rag_query_audit_logs", h.queryAuditLogs)
	d.Register("rag_get_usage_stats", h.usageStats)
	d.Register("rag_get_search_analytics", h.searchAnalytics)
	d.Register("rag_get_memory_analytics", h.memoryAnalytics)
	d.Register("rag_get_tenant_health", h.tenantHealth)
	d.Register("rag_get_system_health", h.systemHealth)

	d.Register("rag_backup_tenant_data", h.backupTenantData)
	d.Register("rag_restore_tenant_data", h.restoreTenantData)
	d.Register("rag_validate_backup", h.validateBackup)
	d.Register("rag_rebuild_index", h.rebuildIndex)

	d.Register("rag_register_tenant", h.registerTenant)
	d.Register("rag_delete_tenant", h.deleteTenant)
	d.Register("rag_update_subscription_tier", h.updateSubscriptionTier)
}

type handlers struct {
	Deps
}

// Argument readers. MCP and REST both decode into map[string]any, so
// numbers arrive as float64.

func argString(req *pipeline.Request, name string) string {
	v, _ := req.Args[name].(string)
	return v
}

func argInt(req *pipeline.Request, name string, def int) int {
	switch v := req.Args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func argBool(req *pipeline.Request, name string) bool {
	v, _ := req.Args[name].(bool)
	return v
}

func argMap(req *pipeline.Request, name string) map[string]any {
	v, _ := req.Args[name].(map[string]any)
	return v
}

func argStringSlice(m map[string]any, name string) []string {
	raw, _ := m[name].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argTime(m map[string]any, name string) *time.Time {
	s, _ := m[name].(string)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
