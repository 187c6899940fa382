package tenantctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

func TestFromContextFailsClosed(t *testing.T) {
	_, err := FromContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))

	_, err = TenantID(context.Background())
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}

func TestFromContextRoundTrip(t *testing.T) {
	p := &Principal{TenantID: "t1", UserID: "u1", Role: RoleEndUser, AuthMethod: AuthAPIKey}
	ctx := WithPrincipal(context.Background(), p)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, p, got)

	tenant, err := TenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", tenant)
}

func TestTenantIDRejectsEmptyTenant(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{UserID: "u1", Role: RoleUberAdmin})
	_, err := TenantID(ctx)
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}

func TestCheckTenant(t *testing.T) {
	user := WithPrincipal(context.Background(), &Principal{TenantID: "t1", Role: RoleEndUser})
	assert.NoError(t, CheckTenant(user, "t1"))

	err := CheckTenant(user, "t2")
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))

	// uber_admin crosses tenants freely.
	uber := WithPrincipal(context.Background(), &Principal{TenantID: "t1", Role: RoleUberAdmin})
	assert.NoError(t, CheckTenant(uber, "t2"))

	assert.Error(t, CheckTenant(context.Background(), "t1"))
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"uber_admin", RoleUberAdmin, true},
		{"tenant_admin", RoleTenantAdmin, true},
		{"project_admin", RoleProjectAdmin, true},
		{"end_user", RoleEndUser, true},
		{"user", RoleEndUser, true},
		{"viewer", RoleEndUser, true},
		{"root", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
