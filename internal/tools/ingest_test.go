package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func TestIngestValidation(t *testing.T) {
	h := &handlers{}
	ctx := principalCtx(tenantctx.RoleProjectAdmin)

	_, err := h.ingest(ctx, &pipeline.Request{Args: map[string]any{}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))

	// Content without a title is rejected before any backend call.
	_, err = h.ingest(ctx, &pipeline.Request{Args: map[string]any{
		"document_content": "body",
		"metadata":         map[string]any{"source": "x"},
	}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestGetDocumentValidation(t *testing.T) {
	h := &handlers{}
	ctx := principalCtx(tenantctx.RoleEndUser)

	_, err := h.getDocument(ctx, &pipeline.Request{Args: map[string]any{}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestListDocumentsValidation(t *testing.T) {
	h := &handlers{}
	ctx := principalCtx(tenantctx.RoleEndUser)

	_, err := h.listDocuments(ctx, &pipeline.Request{Args: map[string]any{"limit": float64(0)}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))

	_, err = h.listDocuments(ctx, &pipeline.Request{Args: map[string]any{"offset": float64(-1)}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestDuplicateResultNamesExistingDocument(t *testing.T) {
	existing := &store.Document{ID: "doc-1"}
	out := duplicateResult(existing, "abc123")
	assert.Equal(t, "duplicate", out["status"])
	assert.Equal(t, "doc-1", out["document_id"])
	assert.Equal(t, "doc-1", out["existing_document_id"])
	assert.Equal(t, "abc123", out["content_hash"])
}

func TestDocType(t *testing.T) {
	doc := &store.Document{Metadata: datatypes.JSON(`{"type":"manual","title":"x"}`)}
	typ, ok := docType(doc)
	assert.True(t, ok)
	assert.Equal(t, "manual", typ)

	doc = &store.Document{Metadata: datatypes.JSON(`{"title":"x"}`)}
	_, ok = docType(doc)
	assert.False(t, ok)

	doc = &store.Document{Metadata: datatypes.JSON(`not json`)}
	_, ok = docType(doc)
	assert.False(t, ok)
}

func TestStringFrom(t *testing.T) {
	m := map[string]any{"a": "v", "b": 1}
	assert.Equal(t, "v", stringFrom(m, "a"))
	assert.Empty(t, stringFrom(m, "b"))
	assert.Empty(t, stringFrom(nil, "a"))
}
