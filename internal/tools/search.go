package tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/search"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

const snippetLength = 200

// search runs hybrid retrieval and hydrates the hits with relational
// metadata. Personalization reorder failures fall back to the engine
// ordering.
func (h *handlers) search(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	p, err := tenantctx.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	query := argString(req, "query")
	if query == "" {
		return nil, ragerr.Validation("query", "query must not be empty")
	}
	limit := argInt(req, "limit", search.DefaultTopK)
	if limit < 1 || limit > search.MaxTopK {
		return nil, ragerr.Validation("limit", "limit must be between 1 and %d", search.MaxTopK)
	}

	filters := argMap(req, "filters")
	opts := search.Options{
		Query: query,
		Mode:  argString(req, "search_mode"),
		TopK:  limit,
		Filters: keyword.Filters{
			DocumentType: stringFrom(filters, "document_type"),
			Tags:         argStringSlice(filters, "tags"),
			From:         argTime(filters, "from"),
			To:           argTime(filters, "to"),
		},
	}

	resp, err := h.Engine.Search(ctx, p.TenantID, opts)
	if err != nil {
		return nil, err
	}

	hydrated := h.hydrate(ctx, p.TenantID, resp.Results)
	if argBool(req, "enable_personalization") && p.UserID != "" {
		hydrated = h.personalize(ctx, p, hydrated)
	}

	return map[string]any{
		"results":            hydrated,
		"total":              len(hydrated),
		"search_mode":        resp.ModeUsed,
		"fallback_triggered": resp.Degraded,
		"vector_ok":          resp.VectorOK,
		"keyword_ok":         resp.KeywordOK,
		"warnings":           resp.Warnings,
	}, nil
}

type searchHit struct {
	DocumentID string         `json:"document_id"`
	Score      float64        `json:"score"`
	Title      string         `json:"title"`
	Snippet    string         `json:"snippet"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Source     string         `json:"source,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// hydrate joins search hits with relational metadata. Hits whose documents
// vanished between index read and hydration are dropped.
func (h *handlers) hydrate(ctx context.Context, tenantID string, results []search.Result) []searchHit {
	out := make([]searchHit, 0, len(results))
	for _, r := range results {
		doc, err := h.Store.GetDocument(ctx, tenantID, r.DocumentID)
		if err != nil {
			if ragerr.KindOf(err) != ragerr.KindNotFound {
				h.Logger.Warn("hydrating search hit failed",
					zap.String("tenant_id", tenantID),
					zap.String("document_id", r.DocumentID), zap.Error(err))
			}
			continue
		}
		var meta map[string]any
		_ = json.Unmarshal(doc.Metadata, &meta)
		out = append(out, searchHit{
			DocumentID: doc.ID,
			Score:      r.Score,
			Title:      doc.Title,
			Snippet:    snippet(doc.Title),
			Metadata:   meta,
			Source:     doc.Source,
			CreatedAt:  doc.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// snippet truncates to 200 characters with an ellipsis suffix.
func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLength]) + "…"
}

// personalize boosts hits whose titles mention terms from the user's stored
// memories. Any failure leaves the original ordering untouched.
func (h *handlers) personalize(ctx context.Context, p *tenantctx.Principal, hits []searchHit) []searchHit {
	memories, err := h.Store.Memories(ctx, p.TenantID, p.UserID)
	if err != nil || len(memories) == 0 {
		if err != nil {
			h.Logger.Warn("personalization fell back to default ordering",
				zap.String("tenant_id", p.TenantID),
				zap.String("user_id", p.UserID), zap.Error(err))
		}
		return hits
	}

	terms := make([]string, 0, len(memories))
	for _, m := range memories {
		for _, w := range strings.Fields(strings.ToLower(m.Content)) {
			if len(w) >= 4 {
				terms = append(terms, w)
			}
		}
	}
	if len(terms) == 0 {
		return hits
	}

	boosted := make([]searchHit, len(hits))
	copy(boosted, hits)
	for i := range boosted {
		title := strings.ToLower(boosted[i].Title)
		for _, t := range terms {
			if strings.Contains(title, t) {
				boosted[i].Score += 0.05
				break
			}
		}
	}
	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].Score > boosted[j].Score
	})
	return boosted
}
