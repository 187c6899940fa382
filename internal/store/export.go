package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// TenantExport is the relational dump written by tenant backups. Documents
// include soft-deleted rows so a restore reproduces the recovery window.
type TenantExport struct {
	Tenant    *Tenant              `json:"tenant"`
	Config    *TenantConfiguration `json:"config"`
	Users     []User               `json:"users"`
	Documents []Document           `json:"documents"`
	Versions  []DocumentVersion    `json:"versions"`
	Memories  []UserMemory         `json:"memories"`
}

// ExportTenant loads every tenant-owned relational row.
func (s *Store) ExportTenant(ctx context.Context, tenantID string) (*TenantExport, error) {
	tenant, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.TenantConfig(ctx, tenantID)
	if err != nil && ragerr.KindOf(err) != ragerr.KindNotFound {
		return nil, err
	}
	out := &TenantExport{Tenant: tenant, Config: cfg}
	err = s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Find(&out.Users).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", tenantID).Find(&out.Documents).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", tenantID).Find(&out.Versions).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ?", tenantID).Find(&out.Memories).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "exporting tenant %s", tenantID)
	}
	return out, nil
}

// ImportTenant upserts a previously exported dump. Existing rows with the
// same primary keys are overwritten; rows created after the backup are left
// in place (the safety backup is the rollback path for those).
func (s *Store) ImportTenant(ctx context.Context, export *TenantExport) error {
	if export == nil || export.Tenant == nil {
		return ragerr.Validation("export", "export has no tenant")
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}
		if err := tx.Clauses(upsert).Create(export.Tenant).Error; err != nil {
			return err
		}
		if export.Config != nil {
			if err := tx.Clauses(upsert).Create(export.Config).Error; err != nil {
				return err
			}
		}
		if len(export.Users) > 0 {
			if err := tx.Clauses(upsert).Create(&export.Users).Error; err != nil {
				return err
			}
		}
		if len(export.Documents) > 0 {
			if err := tx.Clauses(upsert).Create(&export.Documents).Error; err != nil {
				return err
			}
		}
		if len(export.Versions) > 0 {
			if err := tx.Clauses(upsert).Create(&export.Versions).Error; err != nil {
				return err
			}
		}
		if len(export.Memories) > 0 {
			if err := tx.Clauses(upsert).Create(&export.Memories).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ragerr.Internal(err, "importing tenant %s", export.Tenant.ID)
	}
	return nil
}
