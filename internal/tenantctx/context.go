// Package tenantctx carries the authenticated request principal through
// context.Context. Every component that touches a tenant-scoped backend
// resource reads the tenant from here, never from a tool parameter alone.
//
// Extraction is fail closed: a missing principal is a tenant-isolation error,
// not an empty value.
package tenantctx

import (
	"context"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// Role is the authorization role of a principal.
type Role string

const (
	RoleUberAdmin    Role = "uber_admin"
	RoleTenantAdmin  Role = "tenant_admin"
	RoleProjectAdmin Role = "project_admin"
	RoleEndUser      Role = "end_user"
)

// ParseRole maps a stored role string to a Role. Legacy "user" and "viewer"
// records map to end_user.
func ParseRole(s string) (Role, bool) {
	switch s {
	case string(RoleUberAdmin):
		return RoleUberAdmin, true
	case string(RoleTenantAdmin):
		return RoleTenantAdmin, true
	case string(RoleProjectAdmin):
		return RoleProjectAdmin, true
	case string(RoleEndUser), "user", "viewer":
		return RoleEndUser, true
	default:
		return "", false
	}
}

// AuthMethod identifies how the principal authenticated.
type AuthMethod string

const (
	AuthAPIKey AuthMethod = "api_key"
	AuthJWT    AuthMethod = "jwt"
)

// Principal is the request-scoped identity populated by the pipeline.
type Principal struct {
	TenantID   string
	UserID     string
	Role       Role
	AuthMethod AuthMethod
	SessionID  string
	IPAddress  string
}

type principalKey struct{}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext extracts the principal. Fail closed: absence is an error.
func FromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, ragerr.TenantIsolation("no principal in request context")
	}
	return p, nil
}

// TenantID returns the context tenant or an error when absent or empty.
func TenantID(ctx context.Context) (string, error) {
	p, err := FromContext(ctx)
	if err != nil {
		return "", err
	}
	if p.TenantID == "" {
		return "", ragerr.TenantIsolation("principal has no tenant")
	}
	return p.TenantID, nil
}

// CheckTenant verifies that the addressed tenant matches the context tenant.
// uber_admin may address any tenant; everyone else only their own.
func CheckTenant(ctx context.Context, tenantID string) error {
	p, err := FromContext(ctx)
	if err != nil {
		return err
	}
	if p.Role == RoleUberAdmin {
		return nil
	}
	if tenantID != p.TenantID {
		return ragerr.TenantIsolation("tenant %s does not match request tenant", tenantID)
	}
	return nil
}
