package keyword

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// BleveIndex implements Index with bleve, one on-disk index per tenant at
// {root}/tenant-{tenant_id}.
type BleveIndex struct {
	root   string
	logger *zap.Logger

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

// NewBleveIndex creates the store rooted at root.
func NewBleveIndex(root string, logger *zap.Logger) (*BleveIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, ragerr.Internal(err, "creating keyword root")
	}
	return &BleveIndex{
		root:    root,
		logger:  logger,
		indexes: make(map[string]bleve.Index),
	}, nil
}

func (b *BleveIndex) indexPath(tenantID string) string {
	return filepath.Join(b.root, "tenant-"+tenantID)
}

// buildMapping builds the index mapping: tenant_id/type/tags filterable
// keywords, title/content/metadata searchable text.
func buildMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keywordanalyzer.Name
	doc.AddFieldMappingsAt("tenant_id", kw)
	doc.AddFieldMappingsAt("type", kw)
	doc.AddFieldMappingsAt("tags", kw)

	text := bleve.NewTextFieldMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("metadata", text)

	dt := bleve.NewDateTimeFieldMapping()
	dt.Store = true
	doc.AddFieldMappingsAt("created_at", dt)

	m.DefaultMapping = doc
	return m
}

func (b *BleveIndex) open(tenantID string) (bleve.Index, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx, ok := b.indexes[tenantID]; ok {
		return idx, nil
	}
	path := b.indexPath(tenantID)
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, ragerr.Transient(err, "opening keyword index for tenant %s", tenantID)
	}
	b.indexes[tenantID] = idx
	return idx, nil
}

func (b *BleveIndex) Ensure(ctx context.Context, tenantID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	_, err := b.open(tenantID)
	return err
}

func (b *BleveIndex) IndexDocument(ctx context.Context, tenantID string, doc Document) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	if doc.TenantID != tenantID {
		return ragerr.TenantIsolation("document tenant %s does not match index tenant %s", doc.TenantID, tenantID)
	}
	idx, err := b.open(tenantID)
	if err != nil {
		return err
	}
	if err := idx.Index(doc.ID, doc); err != nil {
		return ragerr.Transient(err, "indexing document for tenant %s", tenantID)
	}
	return nil
}

func (b *BleveIndex) Delete(ctx context.Context, tenantID, documentID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	idx, err := b.open(tenantID)
	if err != nil {
		return err
	}
	if err := idx.Delete(documentID); err != nil {
		return ragerr.Transient(err, "deleting document for tenant %s", tenantID)
	}
	return nil
}

func (b *BleveIndex) Search(ctx context.Context, tenantID, queryText string, k int, f Filters) ([]Hit, error) {
	if err := guard(ctx, tenantID); err != nil {
		return nil, err
	}
	idx, err := b.open(tenantID)
	if err != nil {
		return nil, err
	}

	must := []query.Query{
		newTermQuery("tenant_id", tenantID),
		bleve.NewMatchQuery(queryText),
	}
	if f.DocumentType != "" {
		must = append(must, newTermQuery("type", f.DocumentType))
	}
	if len(f.Tags) > 0 {
		tagQueries := make([]query.Query, 0, len(f.Tags))
		for _, tag := range f.Tags {
			tagQueries = append(tagQueries, newTermQuery("tags", tag))
		}
		anyTag := bleve.NewDisjunctionQuery(tagQueries...)
		must = append(must, anyTag)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(must...), k, 0, false)
	req.Fields = []string{"created_at"}
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, ragerr.Transient(err, "searching keyword index for tenant %s", tenantID)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{DocumentID: h.ID, Score: h.Score}
		if res.MaxScore > 0 {
			// bleve tf-idf scores are unbounded; relevance is reported
			// relative to the best hit, in (0,1].
			hit.Score = h.Score / res.MaxScore
		}
		if raw, ok := h.Fields["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				hit.CreatedAt = t
			}
		}
		hits = append(hits, hit)
	}
	return applyDateRange(hits, f), nil
}

func newTermQuery(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func (b *BleveIndex) DeleteIndex(ctx context.Context, tenantID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	b.mu.Lock()
	if idx, ok := b.indexes[tenantID]; ok {
		idx.Close()
		delete(b.indexes, tenantID)
	}
	b.mu.Unlock()
	if err := os.RemoveAll(b.indexPath(tenantID)); err != nil {
		return ragerr.Internal(err, "deleting keyword index for tenant %s", tenantID)
	}
	return nil
}

func (b *BleveIndex) Count(ctx context.Context, tenantID string) (uint64, error) {
	if err := guard(ctx, tenantID); err != nil {
		return 0, err
	}
	idx, err := b.open(tenantID)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, ragerr.Transient(err, "counting keyword documents for tenant %s", tenantID)
	}
	return n, nil
}

func (b *BleveIndex) Ping(ctx context.Context) error {
	if _, err := os.Stat(b.root); err != nil {
		return ragerr.Transient(err, "keyword root unavailable")
	}
	return nil
}

var _ Index = (*BleveIndex)(nil)
