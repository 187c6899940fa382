package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// AuditFilter narrows audit queries.
type AuditFilter struct {
	// ActionPattern is a SQL LIKE pattern matched against action.
	ActionPattern string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// AppendAudit writes one audit record. Called from the async audit queue, so
// errors here are logged by the caller and never surfaced to handlers.
func (s *Store) AppendAudit(ctx context.Context, rec *AuditLog) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	})
}

// QueryAudit returns audit records for one tenant, newest first.
func (s *Store) QueryAudit(ctx context.Context, tenantID string, f AuditFilter) ([]AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var out []AuditLog
	err := s.tx(ctx, func(tx *gorm.DB) error {
		q := tx.Where("tenant_id = ?", tenantID)
		if f.ActionPattern != "" {
			q = q.Where("action LIKE ?", f.ActionPattern)
		}
		if f.From != nil {
			q = q.Where("timestamp >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("timestamp <= ?", *f.To)
		}
		return q.Order("timestamp DESC").Limit(limit).Offset(f.Offset).Find(&out).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "querying audit log")
	}
	return out, nil
}

// RecentAudit returns up to limit post-execution records since the given
// time, for health latency percentiles and analytics.
func (s *Store) RecentAudit(ctx context.Context, tenantID string, since time.Time, limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []AuditLog
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND timestamp >= ?", tenantID, since).
			Order("timestamp DESC").Limit(limit).Find(&out).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "loading recent audit records")
	}
	return out, nil
}
