package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// CreateTenant creates a tenant and its configuration atomically. A tenant is
// never partially created: any failure rolls both rows back.
func (s *Store) CreateTenant(ctx context.Context, t *Tenant, cfg *TenantConfiguration) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if t.Domain != nil {
			var count int64
			if err := tx.Model(&Tenant{}).Where("domain = ?", *t.Domain).Count(&count).Error; err != nil {
				return ragerr.Internal(err, "checking domain uniqueness")
			}
			if count > 0 {
				return ragerr.Conflict("domain_taken", "domain %s already registered", *t.Domain)
			}
		}
		if err := tx.Create(t).Error; err != nil {
			if isUniqueViolation(err) {
				return ragerr.Conflict("tenant_exists", "tenant already exists")
			}
			return ragerr.Internal(err, "creating tenant")
		}
		cfg.TenantID = t.ID
		if err := tx.Create(cfg).Error; err != nil {
			return ragerr.Internal(err, "creating tenant configuration")
		}
		return nil
	})
}

// GetTenant returns a tenant including soft-deleted ones; callers decide
// whether a tombstone is acceptable.
func (s *Store) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var t Tenant
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&t, "id = ?", id).Error
	})
	if err != nil {
		return nil, notFound(err, "tenant", id)
	}
	return &t, nil
}

// TenantConfig returns the tenant's configuration.
func (s *Store) TenantConfig(ctx context.Context, tenantID string) (*TenantConfiguration, error) {
	var cfg TenantConfiguration
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&cfg, "tenant_id = ?", tenantID).Error
	})
	if err != nil {
		return nil, notFound(err, "tenant configuration", tenantID)
	}
	return &cfg, nil
}

// SaveTenantConfig persists configuration mutations (admin tools only).
func (s *Store) SaveTenantConfig(ctx context.Context, cfg *TenantConfiguration) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Save(cfg).Error; err != nil {
			return ragerr.Internal(err, "saving tenant configuration")
		}
		return nil
	})
}

// SoftDeleteTenant marks the tenant deleted, preserving rows for the
// recovery window.
func (s *Store) SoftDeleteTenant(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&Tenant{}).Where("id = ? AND deleted_at IS NULL", id).Update("deleted_at", now)
		if res.Error != nil {
			return ragerr.Internal(res.Error, "soft deleting tenant")
		}
		if res.RowsAffected == 0 {
			return ragerr.NotFound("tenant", id)
		}
		return nil
	})
}

// HardDeleteTenant removes the tenant and every tenant-scoped row except the
// audit log, which is retained per compliance.
func (s *Store) HardDeleteTenant(ctx context.Context, id string) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		for _, del := range []struct {
			model any
			where string
		}{
			{&UserMemory{}, "tenant_id = ?"},
			{&DocumentVersion{}, "tenant_id = ?"},
			{&Document{}, "tenant_id = ?"},
			{&TenantAPIKey{}, "tenant_id = ?"},
			{&User{}, "tenant_id = ?"},
			{&TenantConfiguration{}, "tenant_id = ?"},
		} {
			if err := tx.Where(del.where, id).Delete(del.model).Error; err != nil {
				return ragerr.Internal(err, "deleting tenant-scoped rows")
			}
		}
		if err := tx.Where("id = ?", id).Delete(&Tenant{}).Error; err != nil {
			return ragerr.Internal(err, "deleting tenant")
		}
		return nil
	})
}

// UpdateTenantTier sets the subscription tier.
func (s *Store) UpdateTenantTier(ctx context.Context, id, tier string) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&Tenant{}).Where("id = ? AND deleted_at IS NULL", id).Update("tier", tier)
		if res.Error != nil {
			return ragerr.Internal(res.Error, "updating tier")
		}
		if res.RowsAffected == 0 {
			return ragerr.NotFound("tenant", id)
		}
		return nil
	})
}

// CreateTemplate registers a global template. Templates are immutable after
// creation, excluding administrative correction.
func (s *Store) CreateTemplate(ctx context.Context, t *Template) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			if isUniqueViolation(err) {
				return ragerr.Conflict("template_exists", "template %s already exists", t.Name)
			}
			return ragerr.Internal(err, "creating template")
		}
		return nil
	})
}

// GetTemplate returns a template by name.
func (s *Store) GetTemplate(ctx context.Context, name string) (*Template, error) {
	var t Template
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&t, "name = ?", name).Error
	})
	if err != nil {
		return nil, notFound(err, "template", name)
	}
	return &t, nil
}

// ListTemplates returns all templates.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	var out []Template
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Order("name").Find(&out).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "listing templates")
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
