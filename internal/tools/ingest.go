package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/embeddings"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

// ingest creates or re-versions a document and fans it out to all four
// backends. The relational row commits first; any later backend failure
// triggers compensating deletes in reverse order so no backend holds an
// orphan.
func (h *handlers) ingest(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	content := argString(req, "document_content")
	if content == "" {
		return nil, ragerr.Validation("document_content", "document_content must not be empty")
	}
	metadata := argMap(req, "metadata")
	title, _ := metadata["title"].(string)
	if title == "" {
		return nil, ragerr.Validation("metadata.title", "metadata.title is required")
	}

	sum := sha256.Sum256([]byte(content))
	contentHash := hex.EncodeToString(sum[:])

	// Dedup: an identical live document short-circuits the whole ingest.
	if existing, err := h.Store.GetDocumentByHash(ctx, p.TenantID, contentHash); err == nil {
		return duplicateResult(existing, contentHash), nil
	} else if ragerr.KindOf(err) != ragerr.KindNotFound {
		return nil, err
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, ragerr.Validation("metadata", "metadata is not serializable")
	}
	doc := &store.Document{
		ID:          argString(req, "document_id"),
		TenantID:    p.TenantID,
		UserID:      p.UserID,
		Title:       title,
		ContentHash: contentHash,
		Source:      argString(req, "source"),
		Metadata:    datatypes.JSON(metaJSON),
	}

	if doc.ID != "" {
		// Re-ingest under an existing ID snapshots the prior version.
		current, err := h.Store.GetDocument(ctx, p.TenantID, doc.ID)
		switch {
		case err == nil:
			updated := *current
			updated.Title = title
			updated.ContentHash = contentHash
			updated.Source = doc.Source
			updated.Metadata = doc.Metadata
			if err := h.Store.ReplaceDocument(ctx, current, &updated, "re-ingested with new content"); err != nil {
				return nil, err
			}
			doc = &updated
		case ragerr.KindOf(err) == ragerr.KindNotFound:
			if err := h.Store.CreateDocument(ctx, doc); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	} else {
		doc.ID = uuid.NewString()
		if err := h.Store.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
	}

	indexed, err := h.fanOut(ctx, p.TenantID, doc, content)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"document_id":         doc.ID,
		"status":              "success",
		"version_number":      doc.VersionNumber,
		"indexed_in":          indexed,
		"embedding_dimension": h.Embedder.Dimension(),
		"content_hash":        contentHash,
	}, nil
}

// fanOut writes content to the object store and both indices. On failure it
// unwinds completed steps in reverse, then soft-deletes the relational row
// so the failed ingest is invisible.
func (h *handlers) fanOut(ctx context.Context, tenantID string, doc *store.Document, content string) ([]string, error) {
	var undo []func()
	fail := func(err error) ([]string, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		if _, derr := h.Store.SoftDeleteDocument(ctx, tenantID, doc.ID); derr != nil {
			h.Logger.Error("rolling back document row failed",
				zap.String("tenant_id", tenantID),
				zap.String("document_id", doc.ID), zap.Error(derr))
		}
		return nil, ragerr.Wrap(err, ragerr.KindTransient, "ingestion_failed",
			"ingestion failed, backends rolled back")
	}

	if err := h.Objects.EnsureBucket(ctx, tenantID); err != nil {
		return fail(err)
	}
	if err := h.Objects.PutDocument(ctx, tenantID, doc.ID, []byte(content)); err != nil {
		return fail(err)
	}
	undo = append(undo, func() {
		if err := h.Objects.DeleteDocument(ctx, tenantID, doc.ID); err != nil {
			h.Logger.Warn("compensating object delete failed", zap.Error(err))
		}
	})
	indexed := []string{"object"}

	vec, err := embeddings.EmbedOne(ctx, h.Embedder, content)
	if err != nil {
		return fail(err)
	}
	if err := h.Vector.Ensure(ctx, tenantID, len(vec)); err != nil {
		return fail(err)
	}
	if err := h.Vector.Add(ctx, tenantID, doc.ID, vec); err != nil {
		return fail(err)
	}
	undo = append(undo, func() {
		if err := h.Vector.Remove(ctx, tenantID, doc.ID); err != nil {
			h.Logger.Warn("compensating vector delete failed", zap.Error(err))
		}
	})
	indexed = append(indexed, "vector")

	kd := keyword.Document{
		ID:        doc.ID,
		TenantID:  tenantID,
		Title:     doc.Title,
		Content:   content,
		Metadata:  string(doc.Metadata),
		CreatedAt: doc.CreatedAt,
	}
	if t, ok := docType(doc); ok {
		kd.Type = t
	}
	if err := h.Keyword.IndexDocument(ctx, tenantID, kd); err != nil {
		return fail(err)
	}
	indexed = append(indexed, "keyword")

	if err := h.Vector.Save(ctx, tenantID); err != nil {
		h.Logger.Warn("persisting vector index after ingest failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return indexed, nil
}

// duplicateResult names the surviving document under both keys so callers
// can correlate the rejected ingest with the document that owns the hash.
func duplicateResult(existing *store.Document, contentHash string) map[string]any {
	return map[string]any{
		"document_id":          existing.ID,
		"existing_document_id": existing.ID,
		"status":               "duplicate",
		"content_hash":         contentHash,
	}
}

// docType reads metadata.type for keyword filtering.
func docType(doc *store.Document) (string, bool) {
	var meta map[string]any
	if err := json.Unmarshal(doc.Metadata, &meta); err != nil {
		return "", false
	}
	t, ok := meta["type"].(string)
	return t, ok && t != ""
}

// getDocument returns metadata plus content from the object store. A failed
// object fetch degrades to empty content rather than failing the call.
func (h *handlers) getDocument(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	id := argString(req, "document_id")
	if id == "" {
		return nil, ragerr.Validation("document_id", "document_id is required")
	}
	doc, err := h.Store.GetDocument(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}

	content := ""
	if raw, err := h.Objects.GetDocument(ctx, p.TenantID, id); err == nil {
		content = string(raw)
	} else {
		h.Logger.Warn("object fetch failed for document",
			zap.String("tenant_id", p.TenantID),
			zap.String("document_id", id), zap.Error(err))
	}

	var meta map[string]any
	_ = json.Unmarshal(doc.Metadata, &meta)
	return map[string]any{
		"document_id":    doc.ID,
		"title":          doc.Title,
		"metadata":       meta,
		"source":         doc.Source,
		"version_number": doc.VersionNumber,
		"content_hash":   doc.ContentHash,
		"content":        content,
		"created_at":     doc.CreatedAt,
		"updated_at":     doc.UpdatedAt,
	}, nil
}

// listDocuments pages through live documents with optional filters.
func (h *handlers) listDocuments(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	limit := argInt(req, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, ragerr.Validation("limit", "limit must be between 1 and 100")
	}
	offset := argInt(req, "offset", 0)
	if offset < 0 {
		return nil, ragerr.Validation("offset", "offset must not be negative")
	}

	filters := argMap(req, "filters")
	f := store.DocumentFilter{
		DocumentType:  stringFrom(filters, "document_type"),
		Source:        stringFrom(filters, "source"),
		TitleContains: stringFrom(filters, "title_contains"),
		From:          argTime(filters, "from"),
		To:            argTime(filters, "to"),
	}

	docs, total, err := h.Store.ListDocuments(ctx, p.TenantID, f, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		var meta map[string]any
		_ = json.Unmarshal(d.Metadata, &meta)
		items = append(items, map[string]any{
			"document_id":    d.ID,
			"title":          d.Title,
			"metadata":       meta,
			"source":         d.Source,
			"version_number": d.VersionNumber,
			"created_at":     d.CreatedAt,
		})
	}
	return map[string]any{
		"documents": items,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	}, nil
}

// deleteDocument soft-deletes and removes the document from both indices.
// Index removals are best-effort; the object is retained for the recovery
// window. Idempotent on already-deleted documents.
func (h *handlers) deleteDocument(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	id := argString(req, "document_id")
	if id == "" {
		return nil, ragerr.Validation("document_id", "document_id is required")
	}

	wasLive, err := h.Store.SoftDeleteDocument(ctx, p.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !wasLive {
		return map[string]any{"document_id": id, "status": "already_deleted"}, nil
	}

	if err := h.Vector.Remove(ctx, p.TenantID, id); err != nil {
		h.Logger.Warn("removing document from vector index failed",
			zap.String("tenant_id", p.TenantID),
			zap.String("document_id", id), zap.Error(err))
	}
	if err := h.Keyword.Delete(ctx, p.TenantID, id); err != nil {
		h.Logger.Warn("removing document from keyword index failed",
			zap.String("tenant_id", p.TenantID),
			zap.String("document_id", id), zap.Error(err))
	}
	return map[string]any{"document_id": id, "status": "deleted"}, nil
}

func stringFrom(m map[string]any, name string) string {
	s, _ := m[name].(string)
	return s
}
