package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

type fakeTenantResolver struct {
	tenants map[string]*store.Tenant
}

func (f *fakeTenantResolver) GetTenant(ctx context.Context, id string) (*store.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, ragerr.NotFound("tenant", id)
	}
	return t, nil
}

// echoTenant reports which tenant the handler ran under.
func echoTenant(ctx context.Context, req *Request) (map[string]any, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tenant_id": p.TenantID}, nil
}

func tenantPrincipal(tenantID string, role tenantctx.Role) context.Context {
	return tenantctx.WithPrincipal(context.Background(), &tenantctx.Principal{
		TenantID: tenantID, UserID: "u1", Role: role,
	})
}

func TestTenantStageRejectsDeletedTenant(t *testing.T) {
	deleted := time.Now()
	st := &fakeTenantResolver{tenants: map[string]*store.Tenant{
		"t1": {ID: "t1", Name: "one", DeletedAt: &deleted},
	}}
	h := Chain(echoTenant, TenantStage(st, nil))

	_, err := h(tenantPrincipal("t1", tenantctx.RoleTenantAdmin), &Request{Tool: "rag_search"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}

func TestTenantStageUberAdminReachesDeletedTenant(t *testing.T) {
	deleted := time.Now()
	st := &fakeTenantResolver{tenants: map[string]*store.Tenant{
		"t1": {ID: "t1", Name: "one", DeletedAt: &deleted},
	}}
	h := Chain(echoTenant, TenantStage(st, nil))

	out, err := h(tenantPrincipal("t1", tenantctx.RoleUberAdmin), &Request{Tool: "rag_restore_tenant_data"})
	require.NoError(t, err)
	assert.Equal(t, "t1", out["tenant_id"])
}

func TestTenantStageUnknownTenantIsIsolationError(t *testing.T) {
	st := &fakeTenantResolver{tenants: map[string]*store.Tenant{}}
	h := Chain(echoTenant, TenantStage(st, nil))

	_, err := h(tenantPrincipal("t-missing", tenantctx.RoleEndUser), &Request{Tool: "rag_search"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}

func TestTenantStageCrossTenantRedirect(t *testing.T) {
	st := &fakeTenantResolver{tenants: map[string]*store.Tenant{
		"t1": {ID: "t1", Name: "one"},
		"t2": {ID: "t2", Name: "two"},
	}}
	h := Chain(echoTenant, TenantStage(st, nil))
	req := &Request{Tool: "rag_get_usage_stats", Headers: map[string]string{"X-Tenant-ID": "t2"}}

	out, err := h(tenantPrincipal("t1", tenantctx.RoleUberAdmin), req)
	require.NoError(t, err)
	assert.Equal(t, "t2", out["tenant_id"])

	// Everyone else is pinned to their own tenant.
	out, err = h(tenantPrincipal("t1", tenantctx.RoleTenantAdmin), req)
	require.NoError(t, err)
	assert.Equal(t, "t1", out["tenant_id"])
}
