// Package rbac holds the static tool permission matrix.
package rbac

import "github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"

// roleSet is the set of roles allowed to call a tool.
type roleSet map[tenantctx.Role]struct{}

func roles(rs ...tenantctx.Role) roleSet {
	s := make(roleSet, len(rs))
	for _, r := range rs {
		s[r] = struct{}{}
	}
	return s
}

var (
	everyone   = roles(tenantctx.RoleEndUser, tenantctx.RoleProjectAdmin, tenantctx.RoleTenantAdmin, tenantctx.RoleUberAdmin)
	projectUp  = roles(tenantctx.RoleProjectAdmin, tenantctx.RoleTenantAdmin, tenantctx.RoleUberAdmin)
	tenantUp   = roles(tenantctx.RoleTenantAdmin, tenantctx.RoleUberAdmin)
	uberOnly   = roles(tenantctx.RoleUberAdmin)
)

// permissions maps every registered tool to the roles that may invoke it.
// Cross-tenant parameter checks are separate (see pipeline authorization).
var permissions = map[string]roleSet{
	"rag_list_tools":     everyone,
	"rag_list_templates": everyone,
	"rag_get_template":   everyone,

	"rag_search":         everyone,
	"rag_get_document":   everyone,
	"rag_list_documents": everyone,

	"rag_ingest":          projectUp,
	"rag_delete_document": projectUp,

	"mem0_get_user_memory": everyone,
	"mem0_update_memory":   everyone,
	"mem0_search_memory":   everyone,

	"rag_query_audit_logs":      tenantUp,
	"rag_get_usage_stats":       tenantUp,
	"rag_get_search_analytics":  tenantUp,
	"rag_get_memory_analytics":  tenantUp,
	"rag_get_tenant_health":     tenantUp,
	"rag_backup_tenant_data":    tenantUp,
	"rag_validate_backup":       tenantUp,
	"rag_rebuild_index":         tenantUp,

	"rag_register_tenant":          uberOnly,
	"rag_delete_tenant":            uberOnly,
	"rag_restore_tenant_data":      uberOnly,
	"rag_update_subscription_tier": uberOnly,
	"rag_get_system_health":        uberOnly,
}

// Allowed reports whether role may invoke tool. Unknown tools are denied;
// the dispatcher surfaces unknown names as not-found before authorization runs.
func Allowed(tool string, role tenantctx.Role) bool {
	rs, ok := permissions[tool]
	if !ok {
		return false
	}
	_, ok = rs[role]
	return ok
}

// Known reports whether the tool has a matrix row.
func Known(tool string) bool {
	_, ok := permissions[tool]
	return ok
}

// Tools returns every tool name present in the matrix.
func Tools() []string {
	names := make([]string, 0, len(permissions))
	for name := range permissions {
		names = append(names, name)
	}
	return names
}
