package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// CreateUser inserts a user. Email is globally unique.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return ragerr.Conflict("email_taken", "email %s already registered", u.Email)
			}
			return ragerr.Internal(err, "creating user")
		}
		return nil
	})
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&u, "id = ?", id).Error
	})
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, for JWT subject resolution.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&u, "lower(email) = ?", strings.ToLower(email)).Error
	})
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return &u, nil
}

// GetAPIKey returns an API key record by key id.
func (s *Store) GetAPIKey(ctx context.Context, keyID string) (*TenantAPIKey, error) {
	var k TenantAPIKey
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.First(&k, "id = ?", keyID).Error
	})
	if err != nil {
		return nil, notFound(err, "api key", keyID)
	}
	return &k, nil
}

// CreateAPIKey inserts an API key record.
func (s *Store) CreateAPIKey(ctx context.Context, k *TenantAPIKey) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(k).Error; err != nil {
			return ragerr.Internal(err, "creating api key")
		}
		return nil
	})
}

// Memories returns all memory entries for a user, newest first.
func (s *Store) Memories(ctx context.Context, tenantID, userID string) ([]UserMemory, error) {
	var out []UserMemory
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND user_id = ?", tenantID, userID).
			Order("updated_at DESC").Find(&out).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "loading memories")
	}
	return out, nil
}

// UpsertMemory creates or updates a memory entry keyed by (tenant, user, key).
func (s *Store) UpsertMemory(ctx context.Context, m *UserMemory) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		var existing UserMemory
		err := tx.First(&existing, "tenant_id = ? AND user_id = ? AND key = ?",
			m.TenantID, m.UserID, m.Key).Error
		switch {
		case err == nil:
			return tx.Model(&UserMemory{}).Where("id = ?", existing.ID).Updates(map[string]any{
				"content":    m.Content,
				"updated_at": time.Now().UTC(),
			}).Error
		case err == gorm.ErrRecordNotFound:
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			return tx.Create(m).Error
		default:
			return err
		}
	})
}

// SearchMemories performs a case-insensitive substring match over memory
// content and keys, newest first.
func (s *Store) SearchMemories(ctx context.Context, tenantID, userID, query string, limit int) ([]UserMemory, error) {
	var out []UserMemory
	pattern := "%" + query + "%"
	err := s.tx(ctx, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND user_id = ? AND (content ILIKE ? OR key ILIKE ?)",
			tenantID, userID, pattern, pattern).
			Order("updated_at DESC").Limit(limit).Find(&out).Error
	})
	if err != nil {
		return nil, ragerr.Internal(err, "searching memories")
	}
	return out, nil
}
