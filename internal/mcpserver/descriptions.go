package mcpserver

// toolDescriptions is the client-facing documentation for each tool.
var toolDescriptions = map[string]string{
	"rag_list_tools":     "List the tools available to the caller",
	"rag_list_templates": "List tenant bootstrap templates",
	"rag_get_template":   "Fetch one tenant template by name",

	"rag_ingest":          "Ingest a document: dedup by content hash, version on re-ingest, index in all backends",
	"rag_get_document":    "Fetch a document's metadata and content",
	"rag_list_documents":  "List documents with filters and pagination",
	"rag_delete_document": "Soft-delete a document and remove it from the search indices",
	"rag_search":          "Hybrid vector plus keyword search with weighted fusion and graceful degradation",

	"mem0_get_user_memory": "List the authenticated user's stored memories",
	"mem0_update_memory":   "Create or update one keyed memory for the authenticated user",
	"mem0_search_memory":   "Search the authenticated user's memories",

	"rag_query_audit_logs":     "Query the tenant audit log",
	"rag_get_usage_stats":      "Aggregate tenant usage statistics",
	"rag_get_search_analytics": "Aggregate search activity statistics",
	"rag_get_memory_analytics": "Aggregate memory activity statistics",
	"rag_get_tenant_health":    "Tenant-scoped backend health with latency percentiles",
	"rag_get_system_health":    "Platform-wide backend health",

	"rag_backup_tenant_data":  "Back up all four backends for a tenant with a checksum manifest",
	"rag_restore_tenant_data": "Restore a tenant from a backup after taking a safety backup (requires confirmation=true)",
	"rag_validate_backup":     "Validate a backup's manifest, files and checksums",
	"rag_rebuild_index":       "Rebuild the tenant vector index from source data (requires confirmation code)",

	"rag_register_tenant":          "Create a tenant with configuration, backend resources and an initial admin key",
	"rag_delete_tenant":            "Soft or hard delete a tenant (requires confirmation literal)",
	"rag_update_subscription_tier": "Change a tenant's subscription tier and quotas",
}
