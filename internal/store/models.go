// Package store is the relational adapter: gorm models and tenant-scoped
// repositories over PostgreSQL. Sessions set the row-level-security variables
// app.current_tenant_id and app.current_role so database predicates filter by
// tenant in depth, in addition to the explicit tenant_id predicates issued
// here.
package store

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription tiers.
const (
	TierFree       = "free"
	TierBasic      = "basic"
	TierPremium    = "premium"
	TierEnterprise = "enterprise"
)

// Tenant is the root of all tenant-scoped ownership.
type Tenant struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Domain    *string    `gorm:"uniqueIndex" json:"domain,omitempty"`
	Tier      string     `gorm:"not null;default:free" json:"tier"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// DeletedAt is the soft-delete tombstone; records are retained for the
	// 30-day recovery window.
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TenantConfiguration is 1:1 with Tenant.
type TenantConfiguration struct {
	TenantID           string         `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	TemplateName       *string        `json:"template_name,omitempty"`
	EmbeddingModel     string         `gorm:"not null;default:local-hash-v1" json:"embedding_model"`
	EmbeddingDimension int            `gorm:"not null;default:384" json:"embedding_dimension"`
	LLMModel           string         `json:"llm_model"`
	RateLimitEnabled   bool           `gorm:"not null;default:true" json:"rate_limit_enabled"`
	RequestsPerMinute  int            `gorm:"not null;default:120" json:"requests_per_minute"`
	AuditEnabled       bool           `gorm:"not null;default:true" json:"audit_enabled"`
	ComplianceFlags    datatypes.JSON `json:"compliance_flags,omitempty"`
	Custom             datatypes.JSON `json:"custom,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Template is a global, immutable tenant bootstrap profile.
type Template struct {
	Name                 string         `gorm:"primaryKey" json:"name"`
	DomainType           string         `gorm:"not null" json:"domain_type"`
	Description          string         `json:"description"`
	ComplianceChecklist  datatypes.JSON `json:"compliance_checklist,omitempty"`
	DefaultConfig        datatypes.JSON `json:"default_config,omitempty"`
	CustomizationOptions datatypes.JSON `json:"customization_options,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// Template domain types.
const (
	DomainFintech         = "fintech"
	DomainHealthcare      = "healthcare"
	DomainRetail          = "retail"
	DomainCustomerService = "customer_service"
	DomainCustom          = "custom"
)

// User is a tenant-scoped identity.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"not null;default:end_user" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is a tenant- and user-scoped ingested document.
//
// (tenant_id, content_hash) is unique among non-deleted documents; postgres
// enforces this with a partial unique index created in migrate().
type Document struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      string         `gorm:"type:uuid;not null;index:idx_documents_tenant" json:"tenant_id"`
	UserID        string         `gorm:"type:uuid;not null" json:"user_id"`
	Title         string         `gorm:"not null" json:"title"`
	ContentHash   string         `gorm:"not null" json:"content_hash"`
	Source        string         `json:"source"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	VersionNumber int            `gorm:"not null;default:1" json:"version_number"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     *time.Time     `gorm:"index" json:"deleted_at,omitempty"`
}

// DocumentVersion is an append-only snapshot taken before a re-ingest
// overwrites a document.
type DocumentVersion struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID    string         `gorm:"type:uuid;not null;index" json:"document_id"`
	TenantID      string         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	VersionNumber int            `gorm:"not null" json:"version_number"`
	ContentHash   string         `gorm:"not null" json:"content_hash"`
	CreatedBy     string         `json:"created_by"`
	ChangeSummary string         `json:"change_summary"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AuditLog is immutable and append-only. TenantID and UserID are nullable so
// system events can be recorded; audit rows survive tenant deletion.
type AuditLog struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     *string        `gorm:"type:uuid;index:idx_audit_tenant_ts" json:"tenant_id,omitempty"`
	UserID       *string        `gorm:"type:uuid" json:"user_id,omitempty"`
	Action       string         `gorm:"not null;index" json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      datatypes.JSON `json:"details,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	Status       string         `gorm:"index" json:"status"`
	DurationMS   int64          `json:"duration_ms"`
	Timestamp    time.Time      `gorm:"not null;index:idx_audit_tenant_ts" json:"timestamp"`
}

// TenantAPIKey stores the salted hash of an API key; plaintext is never
// persisted. Keys are presented as "<key_id>.<secret>" so lookup is by key_id
// and verification is sha256(salt || secret).
type TenantAPIKey struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID    string     `gorm:"type:uuid;not null" json:"user_id"`
	Name      string     `json:"name"`
	Salt      string     `gorm:"not null" json:"-"`
	KeyHash   string     `gorm:"not null" json:"-"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UserMemory backs the mem0_* tools: per-user keyed memory entries.
type UserMemory struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string    `gorm:"type:uuid;not null;index:idx_memory_tenant_user" json:"tenant_id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_memory_tenant_user" json:"user_id"`
	Key       string    `gorm:"not null" json:"key"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
