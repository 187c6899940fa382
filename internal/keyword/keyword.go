// Package keyword provides the per-tenant keyword search index.
//
// Each tenant owns one logical index named tenant-{tenant_id}. The tenant_id
// field is indexed as a filterable keyword and ANDed into every query for
// defense in depth; content, title and metadata are searchable text.
package keyword

import (
	"context"
	"time"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// Document is the shape indexed for keyword search.
type Document struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filters narrows a keyword search. DocumentType and Tags are pushed down to
// the engine; the date range is applied post-query (the engine contract does
// not include native date predicates).
type Filters struct {
	DocumentType string
	Tags         []string
	From         *time.Time
	To           *time.Time
}

// Hit is one keyword search result with a relevance score in [0,1],
// higher is better.
type Hit struct {
	DocumentID string
	Score      float64
	CreatedAt  time.Time
}

// Index is the per-tenant keyword index contract.
type Index interface {
	Ensure(ctx context.Context, tenantID string) error
	IndexDocument(ctx context.Context, tenantID string, doc Document) error
	Delete(ctx context.Context, tenantID, documentID string) error
	Search(ctx context.Context, tenantID, query string, k int, f Filters) ([]Hit, error)
	DeleteIndex(ctx context.Context, tenantID string) error
	Count(ctx context.Context, tenantID string) (uint64, error)
	Ping(ctx context.Context) error
}

func guard(ctx context.Context, tenantID string) error {
	return tenantctx.CheckTenant(ctx, tenantID)
}

// applyDateRange filters hits by creation time, preserving order.
func applyDateRange(hits []Hit, f Filters) []Hit {
	if f.From == nil && f.To == nil {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		if f.From != nil && h.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && h.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, h)
	}
	return out
}
