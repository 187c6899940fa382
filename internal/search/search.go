// Package search runs tenant-scoped retrieval: vector, keyword, or hybrid
// with weighted score fusion and graceful degradation when one arm fails.
package search

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/embeddings"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/keyword"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/store"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/vectorstore"
)

const (
	// ModeHybrid fuses both arms; ModeVector and ModeKeyword run one.
	ModeHybrid  = "hybrid"
	ModeVector  = "vector"
	ModeKeyword = "keyword"

	// Reported modes. ModeUsed is always one of hybrid, vector_only,
	// keyword_only or failed, regardless of the requested mode.
	ModeVectorOnly  = "vector_only"
	ModeKeywordOnly = "keyword_only"
	ModeFailed      = "failed"

	DefaultTopK = 10
	MaxTopK     = 100

	DefaultVectorWeight  = 0.6
	DefaultKeywordWeight = 0.4

	// armTimeout bounds each retrieval arm independently so one slow
	// backend cannot stall the whole search.
	armTimeout = 500 * time.Millisecond
)

// Options describes one search request.
type Options struct {
	Query         string
	Mode          string
	TopK          int
	VectorWeight  float64
	KeywordWeight float64
	Filters       keyword.Filters
}

// Result is one fused search hit. VectorScore and KeywordScore are the
// per-arm normalized scores; a nil pointer means the arm did not return
// this document.
type Result struct {
	DocumentID   string
	Score        float64
	VectorScore  *float64
	KeywordScore *float64
}

// Response carries the hits plus how they were produced. ModeUsed differs
// from the requested mode when an arm failed and the search degraded; with
// both arms down it is ModeFailed with empty results, not an error.
type Response struct {
	Results  []Result
	ModeUsed string
	// VectorOK and KeywordOK report per-arm health; an arm that was not
	// consulted counts as healthy.
	VectorOK  bool
	KeywordOK bool
	Degraded  bool
	// Warnings names the arms that failed during a degraded search.
	Warnings []string
}

// Engine wires the retrieval backends together.
type Engine struct {
	store    *store.Store
	vector   vectorstore.Index
	keyword  keyword.Index
	embedder embeddings.Provider
	logger   *zap.Logger
}

// New builds the engine.
func New(st *store.Store, vec vectorstore.Index, kw keyword.Index, emb embeddings.Provider, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, vector: vec, keyword: kw, embedder: emb, logger: logger}
}

func (o *Options) normalize() error {
	if o.Query == "" {
		return ragerr.Validation("query", "query must not be empty")
	}
	switch o.Mode {
	case "":
		o.Mode = ModeHybrid
	case ModeHybrid, ModeVector, ModeKeyword:
	case ModeVectorOnly:
		o.Mode = ModeVector
	case ModeKeywordOnly:
		o.Mode = ModeKeyword
	default:
		return ragerr.Validation("mode", "mode must be hybrid, vector or keyword")
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.TopK > MaxTopK {
		o.TopK = MaxTopK
	}
	if o.VectorWeight <= 0 && o.KeywordWeight <= 0 {
		o.VectorWeight = DefaultVectorWeight
		o.KeywordWeight = DefaultKeywordWeight
	}
	if o.VectorWeight < 0 || o.KeywordWeight < 0 {
		return ragerr.Validation("weights", "weights must not be negative")
	}
	return nil
}

// Search runs the request for the tenant.
func (e *Engine) Search(ctx context.Context, tenantID string, opts Options) (*Response, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	switch opts.Mode {
	case ModeVector:
		hits, err := e.vectorArm(ctx, tenantID, opts)
		if err != nil {
			return nil, err
		}
		return &Response{Results: hits, ModeUsed: ModeVectorOnly, VectorOK: true, KeywordOK: true}, nil
	case ModeKeyword:
		hits, err := e.keywordArm(ctx, tenantID, opts)
		if err != nil {
			return nil, err
		}
		return &Response{Results: hits, ModeUsed: ModeKeywordOnly, VectorOK: true, KeywordOK: true}, nil
	default:
		return e.hybrid(ctx, tenantID, opts)
	}
}

// vectorArm embeds the query, searches the vector index, normalizes raw
// scores to [0,1] and resolves internal IDs back to document IDs.
func (e *Engine) vectorArm(ctx context.Context, tenantID string, opts Options) ([]Result, error) {
	vec, err := embeddings.EmbedOne(ctx, e.embedder, opts.Query)
	if err != nil {
		return nil, err
	}
	// Over-fetch: stale points for deleted documents are filtered out
	// during ID resolution below.
	raw, err := e.vector.Search(ctx, tenantID, vec, opts.TopK*2)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	ids, err := e.store.ActiveDocumentIDs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byInternal := make(map[uint32]string, len(ids))
	for _, id := range ids {
		byInternal[vectorstore.InternalID(id)] = id
	}

	metric := e.vector.Metric()
	results := make([]Result, 0, opts.TopK)
	for _, h := range raw {
		docID, ok := byInternal[h.InternalID]
		if !ok {
			continue
		}
		score := normalizeVectorScore(metric, h.Raw)
		results = append(results, Result{DocumentID: docID, Score: score, VectorScore: &score})
		if len(results) == opts.TopK {
			break
		}
	}
	return results, nil
}

// normalizeVectorScore maps a raw engine score to [0,1], higher is better.
// L2 distances use 1/(1+d); similarity metrics use a sigmoid.
func normalizeVectorScore(metric vectorstore.Metric, raw float32) float64 {
	switch metric {
	case vectorstore.MetricL2:
		d := math.Max(float64(raw), 0)
		return 1.0 / (1.0 + d)
	default:
		return 1.0 / (1.0 + math.Exp(-float64(raw)))
	}
}

func (e *Engine) keywordArm(ctx context.Context, tenantID string, opts Options) ([]Result, error) {
	hits, err := e.keyword.Search(ctx, tenantID, opts.Query, opts.TopK, opts.Filters)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		score := h.Score
		results = append(results, Result{DocumentID: h.DocumentID, Score: score, KeywordScore: &score})
	}
	return results, nil
}
