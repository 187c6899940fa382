package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// requireTenantArg resolves the target tenant: explicit argument or the
// context tenant. The authorization stage has already rejected foreign
// tenant_id arguments for non-uber roles.
func requireTenantArg(ctx context.Context, req *pipeline.Request) (string, error) {
	if id := argString(req, "tenant_id"); id != "" {
		return id, nil
	}
	return tenantctx.TenantID(ctx)
}

func (h *handlers) backupTenantData(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	backupType := argString(req, "backup_type")
	if backupType == "" {
		backupType = "full"
	}
	if backupType != "full" && backupType != "incremental" {
		return nil, ragerr.Validation("backup_type", "backup_type must be full or incremental")
	}
	location := argString(req, "backup_location")

	if argBool(req, "background") {
		return h.inBackground(ctx, "backup", tenantID, func(opCtx context.Context) (any, error) {
			return h.Backup.Backup(opCtx, tenantID, backupType, location)
		}), nil
	}

	manifest, err := h.Backup.Backup(ctx, tenantID, backupType, location)
	if err != nil {
		return nil, err
	}
	return toMap(manifest)
}

func (h *handlers) restoreTenantData(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	if !argBool(req, "confirmation") {
		return nil, ragerr.Validation("confirmation", "restore requires confirmation=true")
	}
	backupID := argString(req, "backup_id")
	if backupID == "" {
		return nil, ragerr.Validation("backup_id", "backup_id is required")
	}

	if argBool(req, "background") {
		return h.inBackground(ctx, "restore", tenantID, func(opCtx context.Context) (any, error) {
			return h.Backup.Restore(opCtx, tenantID, backupID)
		}), nil
	}

	report, err := h.Backup.Restore(ctx, tenantID, backupID)
	if err != nil {
		return nil, err
	}
	return toMap(report)
}

func (h *handlers) validateBackup(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	backupID := argString(req, "backup_id")
	if backupID == "" {
		return nil, ragerr.Validation("backup_id", "backup_id is required")
	}
	report, err := h.Backup.Validate(ctx, tenantID, backupID, argString(req, "validation_type"))
	if err != nil {
		return nil, err
	}
	return toMap(report)
}

func (h *handlers) rebuildIndex(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID, err := requireTenantArg(ctx, req)
	if err != nil {
		return nil, err
	}
	if code := argString(req, "confirmation_code"); code != ConfirmIndexRebuild {
		return nil, ragerr.Validation("confirmation_code", "index rebuild requires confirmation_code %q", ConfirmIndexRebuild)
	}
	rebuildType := argString(req, "rebuild_type")
	if rebuildType == "" {
		rebuildType = "full"
	}
	if rebuildType != "full" && rebuildType != "incremental" {
		return nil, ragerr.Validation("rebuild_type", "rebuild_type must be full or incremental")
	}

	if argBool(req, "background") {
		return h.inBackground(ctx, "rebuild", tenantID, func(opCtx context.Context) (any, error) {
			return h.Backup.Rebuild(opCtx, tenantID, rebuildType)
		}), nil
	}

	report, err := h.Backup.Rebuild(ctx, tenantID, rebuildType)
	if err != nil {
		return nil, err
	}
	return toMap(report)
}

// inBackground detaches a long-running operation from the request. The
// operation keeps the principal (for tenant guards) but not the request
// deadline; completion is logged under the operation ID.
func (h *handlers) inBackground(ctx context.Context, kind, tenantID string, op func(context.Context) (any, error)) map[string]any {
	opID := kind + "_" + uuid.NewString()
	opCtx := context.WithoutCancel(ctx)
	go func() {
		start := time.Now()
		result, err := op(opCtx)
		if err != nil {
			h.Logger.Error("background operation failed",
				zap.String("operation_id", opID),
				zap.String("tenant_id", tenantID), zap.Error(err))
			return
		}
		h.Logger.Info("background operation completed",
			zap.String("operation_id", opID),
			zap.String("tenant_id", tenantID),
			zap.Duration("duration", time.Since(start)),
			zap.Any("result", result))
	}()
	return map[string]any{
		"status":       "started",
		"operation_id": opID,
		"tenant_id":    tenantID,
	}
}

// toMap renders a typed report as the generic tool result payload.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, ragerr.Internal(err, "encoding tool result")
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, ragerr.Internal(err, "decoding tool result")
	}
	return out, nil
}
