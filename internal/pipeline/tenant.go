package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// TenantResolver is the slice of the relational store the stage needs.
// Satisfied by *store.Store.
type TenantResolver interface {
	GetTenant(ctx context.Context, id string) (*store.Tenant, error)
}

// TenantStage validates the principal's tenant and resolves the target
// tenant of the request. uber_admin may redirect to another tenant with the
// X-Tenant-ID header or an explicit tenant_id argument; everyone else is
// pinned to the tenant their credential belongs to.
//
// Soft-deleted tenants are rejected for all callers except uber_admin, who
// still needs access for restore and hard-delete. Extraction failures are
// tenant-isolation errors.
func TenantStage(st TenantResolver, logger *zap.Logger) Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (map[string]any, error) {
			p, err := tenantctx.FromContext(ctx)
			if err != nil {
				return nil, err
			}

			target := p.TenantID
			if p.Role == tenantctx.RoleUberAdmin {
				if h := req.Header("X-Tenant-ID"); h != "" {
					target = h
				} else if arg := req.StringArg("tenant_id"); arg != "" {
					target = arg
				}
			}
			if target == "" {
				return nil, ragerr.TenantIsolation("request has no tenant")
			}

			tenant, err := st.GetTenant(ctx, target)
			if err != nil {
				if ragerr.KindOf(err) == ragerr.KindNotFound {
					return nil, ragerr.TenantIsolation("tenant %s does not exist", target)
				}
				return nil, err
			}
			if tenant.DeletedAt != nil && p.Role != tenantctx.RoleUberAdmin {
				return nil, ragerr.TenantIsolation("tenant %s is deleted", target)
			}

			if target != p.TenantID {
				logger.Info("cross-tenant request",
					zap.String("admin_tenant", p.TenantID),
					zap.String("target_tenant", target),
					zap.String("user_id", p.UserID))
				scoped := *p
				scoped.TenantID = target
				ctx = tenantctx.WithPrincipal(ctx, &scoped)
			}
			return next(ctx, req)
		}
	}
}
