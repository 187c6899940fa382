package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// DocumentFilter narrows document listings. All fields are optional.
type DocumentFilter struct {
	// DocumentType matches metadata ->> 'type'.
	DocumentType  string
	Source        string
	TitleContains string
	From          *time.Time
	To            *time.Time
}

func applyDocumentFilter(q *gorm.DB, f DocumentFilter) *gorm.DB {
	if f.DocumentType != "" {
		q = q.Where("metadata ->> 'type' = ?", f.DocumentType)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	if f.TitleContains != "" {
		q = q.Where("title ILIKE ?", "%"+f.TitleContains+"%")
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return q
}

// CreateDocument inserts a new document row.
func (s *Store) CreateDocument(ctx context.Context, d *Document) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			if isUniqueViolation(err) {
				return ragerr.Conflict("duplicate_content", "content already ingested for tenant")
			}
			return ragerr.Internal(err, "creating document")
		}
		return nil
	})
}

// GetDocument returns a live (non-deleted) document owned by the tenant.
func (s *Store) GetDocument(ctx context.Context, tenantID, id string) (*Document, error) {
	var d Document
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&d, "id = ? AND tenant_id = ? AND deleted_at IS NULL", id, tenantID).Error
	})
	if err != nil {
		return nil, notFound(err, "document", id)
	}
	return &d, nil
}

// GetDocumentAny returns a document regardless of deletion state. Used by the
// idempotent delete path.
func (s *Store) GetDocumentAny(ctx context.Context, tenantID, id string) (*Document, error) {
	var d Document
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&d, "id = ? AND tenant_id = ?", id, tenantID).Error
	})
	if err != nil {
		return nil, notFound(err, "document", id)
	}
	return &d, nil
}

// GetDocumentByHash finds a live document with the given content hash, for
// ingest dedup.
func (s *Store) GetDocumentByHash(ctx context.Context, tenantID, hash string) (*Document, error) {
	var d Document
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&d, "tenant_id = ? AND content_hash = ? AND deleted_at IS NULL", tenantID, hash).Error
	})
	if err != nil {
		return nil, notFound(err, "document", hash)
	}
	return &d, nil
}

// ReplaceDocument snapshots the current row into a DocumentVersion and
// updates the document in place with the new hash, metadata and incremented
// version number. Both writes share a transaction.
func (s *Store) ReplaceDocument(ctx context.Context, current *Document, updated *Document, changeSummary string) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		snapshot := DocumentVersion{
			ID:            uuid.NewString(),
			DocumentID:    current.ID,
			TenantID:      current.TenantID,
			VersionNumber: current.VersionNumber,
			ContentHash:   current.ContentHash,
			CreatedBy:     updated.UserID,
			ChangeSummary: changeSummary,
			Metadata:      current.Metadata,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return ragerr.Internal(err, "snapshotting document version")
		}
		updated.VersionNumber = current.VersionNumber + 1
		if err := tx.Model(&Document{}).Where("id = ?", current.ID).Updates(map[string]any{
			"title":          updated.Title,
			"content_hash":   updated.ContentHash,
			"metadata":       updated.Metadata,
			"source":         updated.Source,
			"version_number": updated.VersionNumber,
			"updated_at":     time.Now().UTC(),
		}).Error; err != nil {
			return ragerr.Internal(err, "updating document")
		}
		return nil
	})
}

// SoftDeleteDocument sets the tombstone. Returns true when the row was live.
func (s *Store) SoftDeleteDocument(ctx context.Context, tenantID, id string) (bool, error) {
	var affected int64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&Document{}).
			Where("id = ? AND tenant_id = ? AND deleted_at IS NULL", id, tenantID).
			Update("deleted_at", time.Now().UTC())
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, ragerr.Internal(err, "soft deleting document")
	}
	return affected > 0, nil
}

// ListDocuments returns a page of live documents.
func (s *Store) ListDocuments(ctx context.Context, tenantID string, f DocumentFilter, limit, offset int) ([]Document, int64, error) {
	var (
		docs  []Document
		total int64
	)
	err := s.tx(ctx, func(tx *gorm.DB) error {
		q := applyDocumentFilter(tx.Model(&Document{}).
			Where("tenant_id = ? AND deleted_at IS NULL", tenantID), f)
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&docs).Error
	})
	if err != nil {
		return nil, 0, ragerr.Internal(err, "listing documents")
	}
	return docs, total, nil
}

// ActiveDocumentIDs enumerates live document IDs for a tenant. The vector
// search resolver uses this to rebuild the internal-ID mapping; O(tenant) by
// contract.
func (s *Store) ActiveDocumentIDs(ctx context.Context, tenantID string) ([]string, error) {
	var ids []string
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Document{}).
			Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
			Pluck("id", &ids).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "enumerating documents")
	}
	return ids, nil
}

// ActiveDocuments returns every live document for a tenant. Used by backup
// and index rebuild.
func (s *Store) ActiveDocuments(ctx context.Context, tenantID string) ([]Document, error) {
	var docs []Document
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
			Order("created_at").Find(&docs).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "loading documents")
	}
	return docs, nil
}

// DocumentVersions returns a document's snapshots ordered by version.
func (s *Store) DocumentVersions(ctx context.Context, tenantID, documentID string) ([]DocumentVersion, error) {
	var versions []DocumentVersion
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND document_id = ?", tenantID, documentID).
			Order("version_number").Find(&versions).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "loading document versions")
	}
	return versions, nil
}

// CountActiveDocuments counts live documents for a tenant.
func (s *Store) CountActiveDocuments(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Model(&Document{}).
			Where("tenant_id = ? AND deleted_at IS NULL", tenantID).Count(&n).Error
	})
	if err != nil {
		return 0, ragerr.Internal(err, "counting documents")
	}
	return n, nil
}

// RestoreDocuments upserts document rows from a backup dump.
func (s *Store) RestoreDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	return s.tx(ctx, func(tx *gorm.DB) error {
		for i := range docs {
			if err := tx.Save(&docs[i]).Error; err != nil {
				return ragerr.Internal(err, "restoring document %s", docs[i].ID)
			}
		}
		return nil
	})
}
