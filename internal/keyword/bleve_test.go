package keyword

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func tenantCtx(tenantID string) context.Context {
	return tenantctx.WithPrincipal(context.Background(), &tenantctx.Principal{
		TenantID: tenantID,
		UserID:   "u1",
		Role:     tenantctx.RoleEndUser,
	})
}

func newTestBleve(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(t.TempDir(), nil)
	require.NoError(t, err)
	return idx
}

func testDoc(id, tenantID, title, content string) Document {
	return Document{
		ID:        id,
		TenantID:  tenantID,
		Title:     title,
		Content:   content,
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestBleveIndexAndSearch(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	require.NoError(t, idx.IndexDocument(ctx, "t1", testDoc("d1", "t1", "Go concurrency", "channels and goroutines")))
	require.NoError(t, idx.IndexDocument(ctx, "t1", testDoc("d2", "t1", "Cooking", "how to bake bread")))

	hits, err := idx.Search(ctx, "t1", "goroutines", 10, Filters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d1", hits[0].DocumentID)
	// Scores are relative to the best hit.
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, 2026, hits[0].CreatedAt.Year())
}

func TestBleveTenantMismatchRejected(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	err := idx.IndexDocument(ctx, "t1", testDoc("d1", "t2", "x", "y"))
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))

	err = idx.IndexDocument(ctx, "t2", testDoc("d1", "t2", "x", "y"))
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}

func TestBleveTypeFilter(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	manual := testDoc("d1", "t1", "Server manual", "restart procedure")
	manual.Type = "manual"
	faq := testDoc("d2", "t1", "Server FAQ", "restart questions")
	faq.Type = "faq"
	require.NoError(t, idx.IndexDocument(ctx, "t1", manual))
	require.NoError(t, idx.IndexDocument(ctx, "t1", faq))

	hits, err := idx.Search(ctx, "t1", "restart", 10, Filters{DocumentType: "faq"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d2", hits[0].DocumentID)
}

func TestBleveTagsFilter(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	a := testDoc("d1", "t1", "Release notes", "version one")
	a.Tags = []string{"release", "v1"}
	b := testDoc("d2", "t1", "Release notes", "version two")
	b.Tags = []string{"draft"}
	require.NoError(t, idx.IndexDocument(ctx, "t1", a))
	require.NoError(t, idx.IndexDocument(ctx, "t1", b))

	hits, err := idx.Search(ctx, "t1", "version", 10, Filters{Tags: []string{"v1", "missing"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d1", hits[0].DocumentID)
}

func TestBleveDateRangePostFilter(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	old := testDoc("d1", "t1", "Notes", "quarterly report")
	old.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := testDoc("d2", "t1", "Notes", "quarterly report")
	recent.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, idx.IndexDocument(ctx, "t1", old))
	require.NoError(t, idx.IndexDocument(ctx, "t1", recent))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hits, err := idx.Search(ctx, "t1", "quarterly", 10, Filters{From: &from})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "d2", hits[0].DocumentID)
}

func TestBleveDeleteDocument(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	require.NoError(t, idx.IndexDocument(ctx, "t1", testDoc("d1", "t1", "x", "searchable text")))
	require.NoError(t, idx.Delete(ctx, "t1", "d1"))

	hits, err := idx.Search(ctx, "t1", "searchable", 10, Filters{})
	require.NoError(t, err)
	assert.Empty(t, hits)

	n, err := idx.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBleveTenantsAreIsolated(t *testing.T) {
	idx := newTestBleve(t)

	require.NoError(t, idx.IndexDocument(tenantCtx("t1"), "t1", testDoc("d1", "t1", "secret", "tenant one data")))

	hits, err := idx.Search(tenantCtx("t2"), "t2", "tenant", 10, Filters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBleveDeleteIndex(t *testing.T) {
	idx := newTestBleve(t)
	ctx := tenantCtx("t1")

	require.NoError(t, idx.IndexDocument(ctx, "t1", testDoc("d1", "t1", "x", "y")))
	require.NoError(t, idx.DeleteIndex(ctx, "t1"))

	n, err := idx.Count(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApplyDateRange(t *testing.T) {
	mk := func(y int) Hit { return Hit{CreatedAt: time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)} }
	hits := []Hit{mk(2024), mk(2025), mk(2026)}

	assert.Len(t, applyDateRange(hits, Filters{}), 3)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	out := applyDateRange([]Hit{mk(2024), mk(2025), mk(2026)}, Filters{From: &from, To: &to})
	require.Len(t, out, 1)
	assert.Equal(t, 2025, out[0].CreatedAt.Year())
}
