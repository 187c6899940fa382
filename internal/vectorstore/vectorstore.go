// Package vectorstore provides per-tenant vector index implementations.
//
// Every tenant owns exactly one index. Implementations validate on every
// operation that the addressed tenant matches the request context (fail
// closed, tenant-isolation error on mismatch), and serialize writers per
// tenant while allowing concurrent readers.
package vectorstore

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// Metric identifies the raw score semantics returned by Search.
type Metric int

const (
	// MetricL2: raw scores are L2 distances, lower is better.
	MetricL2 Metric = iota
	// MetricInnerProduct: raw scores are similarities, higher is better.
	MetricInnerProduct
)

// Hit is one raw search result. InternalID is resolved to a document ID by
// the search layer against the relational store.
type Hit struct {
	InternalID uint32
	Raw        float32
}

// Index is the per-tenant vector index contract.
type Index interface {
	// Ensure creates the tenant's index with the given dimension if absent.
	Ensure(ctx context.Context, tenantID string, dim int) error

	// Add inserts or replaces a document vector. A dimension mismatch with
	// the existing index rebuilds the index at the new dimension.
	Add(ctx context.Context, tenantID, documentID string, vector []float32) error

	// Search returns up to k raw hits, best first.
	Search(ctx context.Context, tenantID string, vector []float32, k int) ([]Hit, error)

	// Remove deletes a document vector, best effort.
	Remove(ctx context.Context, tenantID, documentID string) error

	// Save flushes the tenant's index to durable storage.
	Save(ctx context.Context, tenantID string) error

	// DeleteIndex removes the tenant's index entirely.
	DeleteIndex(ctx context.Context, tenantID string) error

	// Count returns the number of vectors in the tenant's index.
	Count(ctx context.Context, tenantID string) (int, error)

	// Metric reports the raw score semantics of this implementation.
	Metric() Metric

	// Ping probes the backend, for health checks.
	Ping(ctx context.Context) error
}

// InternalID derives the in-index integer ID for a document:
// fnv32a(document_id) mod 2^31. Collisions are tolerated because the reverse
// mapping is reconstructed from the relational store, which discards
// unmapped IDs.
func InternalID(documentID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(documentID))
	return h.Sum32() % (1 << 31)
}

// guard enforces that the addressed tenant matches the request context.
func guard(ctx context.Context, tenantID string) error {
	return tenantctx.CheckTenant(ctx, tenantID)
}

// pickRoot returns primary if writable, otherwise fallback. Both are created
// on demand.
func pickRoot(primary, fallback string) (string, error) {
	if writableDir(primary) {
		return primary, nil
	}
	if err := os.MkdirAll(fallback, 0o755); err != nil {
		return "", err
	}
	return fallback, nil
}

func writableDir(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe := filepath.Join(dir, ".writable")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}
