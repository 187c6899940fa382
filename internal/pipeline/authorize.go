package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/rbac"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// AuthorizeStage checks the role's permission for the tool and rejects
// tenant_id arguments that point outside the request tenant for anyone
// below uber_admin.
func AuthorizeStage(logger *zap.Logger) Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (map[string]any, error) {
			p, err := tenantctx.FromContext(ctx)
			if err != nil {
				return nil, err
			}
			if !rbac.Known(req.Tool) {
				return nil, ragerr.NotFound("tool", req.Tool)
			}
			if !rbac.Allowed(req.Tool, p.Role) {
				logger.Warn("permission denied",
					zap.String("tenant_id", p.TenantID),
					zap.String("user_id", p.UserID),
					zap.String("role", string(p.Role)),
					zap.String("tool", req.Tool))
				return nil, ragerr.Authorization("role %s may not call %s", p.Role, req.Tool)
			}
			if arg := req.StringArg("tenant_id"); arg != "" && arg != p.TenantID && p.Role != tenantctx.RoleUberAdmin {
				return nil, ragerr.TenantIsolation("tenant_id argument does not match request tenant")
			}
			return next(ctx, req)
		}
	}
}
