package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func authorizedCtx(role tenantctx.Role) context.Context {
	return tenantctx.WithPrincipal(context.Background(), &tenantctx.Principal{
		TenantID: "t1",
		UserID:   "u1",
		Role:     role,
	})
}

func okHandler(ctx context.Context, req *Request) (map[string]any, error) {
	return map[string]any{"ok": true}, nil
}

func TestAuthorizeStageAllows(t *testing.T) {
	h := AuthorizeStage(nil)(okHandler)
	out, err := h(authorizedCtx(tenantctx.RoleEndUser), &Request{Tool: "rag_search"})
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
}

func TestAuthorizeStageDeniesByRole(t *testing.T) {
	h := AuthorizeStage(nil)(okHandler)

	_, err := h(authorizedCtx(tenantctx.RoleEndUser), &Request{Tool: "rag_ingest"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindAuthorization, ragerr.KindOf(err))

	_, err = h(authorizedCtx(tenantctx.RoleTenantAdmin), &Request{Tool: "rag_register_tenant"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindAuthorization, ragerr.KindOf(err))
}

func TestAuthorizeStageUnknownTool(t *testing.T) {
	h := AuthorizeStage(nil)(okHandler)
	_, err := h(authorizedCtx(tenantctx.RoleUberAdmin), &Request{Tool: "rag_nope"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindNotFound, ragerr.KindOf(err))
}

func TestAuthorizeStageForeignTenantArg(t *testing.T) {
	h := AuthorizeStage(nil)(okHandler)
	req := &Request{Tool: "rag_search", Args: map[string]any{"tenant_id": "t2"}}

	_, err := h(authorizedCtx(tenantctx.RoleTenantAdmin), req)
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))

	// Own tenant is fine; uber_admin may address any tenant.
	_, err = h(authorizedCtx(tenantctx.RoleTenantAdmin),
		&Request{Tool: "rag_search", Args: map[string]any{"tenant_id": "t1"}})
	assert.NoError(t, err)

	_, err = h(authorizedCtx(tenantctx.RoleUberAdmin), req)
	assert.NoError(t, err)
}

func TestAuthorizeStageRequiresPrincipal(t *testing.T) {
	h := AuthorizeStage(nil)(okHandler)
	_, err := h(context.Background(), &Request{Tool: "rag_search"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}
