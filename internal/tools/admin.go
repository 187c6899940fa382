package tools

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/dispatch"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// Confirmation literals for destructive operations. Exact-match contracts;
// a mismatch rejects the call before any backend side effect.
const (
	ConfirmHardDelete   = "DELETE"
	ConfirmSoftDelete   = "SOFT_DELETE"
	ConfirmIndexRebuild = "FR-BACKUP-004"
)

// tierRequestsPerMinute maps subscription tiers to rate-limit quotas.
var tierRequestsPerMinute = map[string]int{
	store.TierFree:       60,
	store.TierBasic:      120,
	store.TierPremium:    300,
	store.TierEnterprise: 600,
}

func (h *handlers) listTools(d *dispatch.Dispatcher) pipeline.Handler {
	return func(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
		return map[string]any{"tools": d.Tools()}, nil
	}
}

func (h *handlers) listTemplates(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	templates, err := h.Store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(templates))
	for _, t := range templates {
		items = append(items, map[string]any{
			"name":        t.Name,
			"domain_type": t.DomainType,
			"description": t.Description,
		})
	}
	return map[string]any{"templates": items}, nil
}

func (h *handlers) getTemplate(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	name := argString(req, "template_name")
	if name == "" {
		return nil, ragerr.Validation("template_name", "template_name is required")
	}
	t, err := h.Store.GetTemplate(ctx, name)
	if err != nil {
		return nil, err
	}
	var checklist, defaults, options any
	_ = json.Unmarshal(t.ComplianceChecklist, &checklist)
	_ = json.Unmarshal(t.DefaultConfig, &defaults)
	_ = json.Unmarshal(t.CustomizationOptions, &options)
	return map[string]any{
		"name":                  t.Name,
		"domain_type":           t.DomainType,
		"description":           t.Description,
		"compliance_checklist":  checklist,
		"default_config":        defaults,
		"customization_options": options,
	}, nil
}

// registerTenant atomically creates the tenant with its configuration,
// provisions the backend resources, and issues the initial admin API key.
// The key secret is returned exactly once.
func (h *handlers) registerTenant(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	name := argString(req, "name")
	if name == "" {
		return nil, ragerr.Validation("name", "name is required")
	}
	tier := argString(req, "tier")
	if tier == "" {
		tier = store.TierFree
	}
	if _, ok := tierRequestsPerMinute[tier]; !ok {
		return nil, ragerr.Validation("tier", "unknown tier %q", tier)
	}
	adminEmail := argString(req, "admin_email")
	if adminEmail == "" {
		return nil, ragerr.Validation("admin_email", "admin_email is required")
	}

	tenant := &store.Tenant{
		ID:   uuid.NewString(),
		Name: name,
		Tier: tier,
	}
	if domain := argString(req, "domain"); domain != "" {
		tenant.Domain = &domain
	}
	cfg := &store.TenantConfiguration{
		TenantID:           tenant.ID,
		EmbeddingModel:     h.Embedder.Model(),
		EmbeddingDimension: h.Embedder.Dimension(),
		RateLimitEnabled:   true,
		RequestsPerMinute:  tierRequestsPerMinute[tier],
		AuditEnabled:       true,
	}
	if templateName := argString(req, "template"); templateName != "" {
		t, err := h.Store.GetTemplate(ctx, templateName)
		if err != nil {
			return nil, err
		}
		cfg.TemplateName = &t.Name
		cfg.ComplianceFlags = t.ComplianceChecklist
		cfg.Custom = t.DefaultConfig
	}
	if err := h.Store.CreateTenant(ctx, tenant, cfg); err != nil {
		return nil, err
	}

	// Backend provisioning runs as the new tenant; only uber_admin reaches
	// this handler, so CheckTenant passes through.
	if err := h.provisionBackends(ctx, tenant.ID); err != nil {
		h.Logger.Warn("tenant backend provisioning incomplete",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
	}

	admin := &store.User{
		ID:       uuid.NewString(),
		TenantID: tenant.ID,
		Email:    adminEmail,
		Role:     string(tenantctx.RoleTenantAdmin),
	}
	if err := h.Store.CreateUser(ctx, admin); err != nil {
		return nil, err
	}
	apiKey, err := h.issueAPIKey(ctx, tenant.ID, admin.ID, "initial admin key")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"tenant_id":     tenant.ID,
		"name":          tenant.Name,
		"tier":          tenant.Tier,
		"admin_user_id": admin.ID,
		"api_key":       apiKey,
	}, nil
}

func (h *handlers) provisionBackends(ctx context.Context, tenantID string) error {
	if err := h.Objects.EnsureBucket(ctx, tenantID); err != nil {
		return err
	}
	if err := h.Vector.Ensure(ctx, tenantID, h.Embedder.Dimension()); err != nil {
		return err
	}
	return h.Keyword.Ensure(ctx, tenantID)
}

// issueAPIKey mints "<key_id>.<secret>" and stores only the salted hash.
func (h *handlers) issueAPIKey(ctx context.Context, tenantID, userID, name string) (string, error) {
	secretBytes := make([]byte, 24)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", ragerr.Internal(err, "generating api key secret")
	}
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", ragerr.Internal(err, "generating api key salt")
	}
	secret := hex.EncodeToString(secretBytes)
	salt := hex.EncodeToString(saltBytes)

	key := &store.TenantAPIKey{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		UserID:   userID,
		Name:     name,
		Salt:     salt,
		KeyHash:  pipeline.HashAPIKeySecret(salt, secret),
	}
	if err := h.Store.CreateAPIKey(ctx, key); err != nil {
		return "", err
	}
	return key.ID + "." + secret, nil
}

// deleteTenant handles both soft and hard deletion. Hard deletion takes a
// safety backup first and then removes every tenant-scoped resource;
// audit rows are retained either way.
func (h *handlers) deleteTenant(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID := argString(req, "tenant_id")
	if tenantID == "" {
		return nil, ragerr.Validation("tenant_id", "tenant_id is required")
	}
	confirmation := argString(req, "confirmation")
	deleteType := argString(req, "delete_type")
	if deleteType == "" {
		deleteType = "soft"
	}

	switch deleteType {
	case "soft":
		if confirmation != ConfirmSoftDelete {
			return nil, ragerr.Validation("confirmation", "soft delete requires confirmation %q", ConfirmSoftDelete)
		}
		if err := h.Store.SoftDeleteTenant(ctx, tenantID); err != nil {
			return nil, err
		}
		return map[string]any{
			"tenant_id":            tenantID,
			"status":               "soft_deleted",
			"recovery_window_days": 30,
		}, nil

	case "hard":
		if confirmation != ConfirmHardDelete {
			return nil, ragerr.Validation("confirmation", "hard delete requires confirmation %q", ConfirmHardDelete)
		}
		safety, err := h.Backup.Backup(ctx, tenantID, "full", "")
		if err != nil {
			return nil, ragerr.Wrap(err, ragerr.KindInternal, "safety_backup_failed",
				"refusing to hard-delete without a safety backup")
		}
		if err := h.Vector.DeleteIndex(ctx, tenantID); err != nil {
			h.Logger.Warn("deleting vector index failed",
				zap.String("tenant_id", tenantID), zap.Error(err))
		}
		if err := h.Keyword.DeleteIndex(ctx, tenantID); err != nil {
			h.Logger.Warn("deleting keyword index failed",
				zap.String("tenant_id", tenantID), zap.Error(err))
		}
		if err := h.Objects.DeleteBucket(ctx, tenantID); err != nil {
			h.Logger.Warn("deleting object bucket failed",
				zap.String("tenant_id", tenantID), zap.Error(err))
		}
		if err := h.Store.HardDeleteTenant(ctx, tenantID); err != nil {
			return nil, err
		}
		return map[string]any{
			"tenant_id":        tenantID,
			"status":           "hard_deleted",
			"safety_backup_id": safety.BackupID,
		}, nil

	default:
		return nil, ragerr.Validation("delete_type", "delete_type must be soft or hard")
	}
}

// updateSubscriptionTier changes the tier and rewrites the tier-derived
// quotas in the tenant configuration.
func (h *handlers) updateSubscriptionTier(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	tenantID := argString(req, "tenant_id")
	if tenantID == "" {
		return nil, ragerr.Validation("tenant_id", "tenant_id is required")
	}
	tier := argString(req, "tier")
	rpm, ok := tierRequestsPerMinute[tier]
	if !ok {
		return nil, ragerr.Validation("tier", "unknown tier %q", tier)
	}

	if err := h.Store.UpdateTenantTier(ctx, tenantID, tier); err != nil {
		return nil, err
	}
	cfg, err := h.Store.TenantConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	cfg.RequestsPerMinute = rpm
	if err := h.Store.SaveTenantConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return map[string]any{
		"tenant_id":           tenantID,
		"tier":                tier,
		"requests_per_minute": rpm,
	}, nil
}
