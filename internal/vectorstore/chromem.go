package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// collectionName is the single collection inside each per-tenant database.
const collectionName = "documents"

// ChromemIndex implements Index with chromem-go, an embedded pure-Go vector
// database. Each tenant's index is a distinct persistent database at
// {root}/tenant_{tenant_id}.index, giving filesystem-level isolation on top
// of the context guard.
//
// chromem reports cosine similarity, so Metric() is MetricInnerProduct and
// the search layer applies the sigmoid normalization.
type ChromemIndex struct {
	root   string
	logger *zap.Logger

	mu    sync.Mutex
	dbs   map[string]*chromem.DB
	locks map[string]*sync.RWMutex
	dims  map[string]int
}

// ChromemConfig configures the embedded index store.
type ChromemConfig struct {
	// Root is the primary directory for per-tenant index files.
	Root string
	// FallbackRoot is used when Root is not writable.
	FallbackRoot string
}

// NewChromemIndex creates the store, selecting a writable root.
func NewChromemIndex(cfg ChromemConfig, logger *zap.Logger) (*ChromemIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	root, err := pickRoot(cfg.Root, cfg.FallbackRoot)
	if err != nil {
		return nil, ragerr.Internal(err, "no writable vector root")
	}
	if root != cfg.Root {
		logger.Warn("primary vector root not writable, using fallback",
			zap.String("primary", cfg.Root), zap.String("fallback", root))
	}
	return &ChromemIndex{
		root:   root,
		logger: logger,
		dbs:    make(map[string]*chromem.DB),
		locks:  make(map[string]*sync.RWMutex),
		dims:   make(map[string]int),
	}, nil
}

func (c *ChromemIndex) indexPath(tenantID string) string {
	return filepath.Join(c.root, fmt.Sprintf("tenant_%s.index", tenantID))
}

func (c *ChromemIndex) dimPath(tenantID string) string {
	return filepath.Join(c.root, fmt.Sprintf("tenant_%s.dim", tenantID))
}

// dimension returns the tenant index's recorded vector dimension, 0 when the
// index has never seen a vector.
func (c *ChromemIndex) dimension(tenantID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.dims[tenantID]; ok {
		return d
	}
	raw, err := os.ReadFile(c.dimPath(tenantID))
	if err != nil {
		return 0
	}
	d, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}
	c.dims[tenantID] = d
	return d
}

func (c *ChromemIndex) recordDimension(tenantID string, dim int) {
	c.mu.Lock()
	c.dims[tenantID] = dim
	c.mu.Unlock()
	if err := os.WriteFile(c.dimPath(tenantID), []byte(strconv.Itoa(dim)), 0o644); err != nil {
		c.logger.Warn("recording vector dimension failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

// lockFor returns the tenant's reader-writer lock, creating it on first use.
func (c *ChromemIndex) lockFor(tenantID string) *sync.RWMutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[tenantID]
	if !ok {
		l = &sync.RWMutex{}
		c.locks[tenantID] = l
	}
	return l
}

func (c *ChromemIndex) db(tenantID string) (*chromem.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if db, ok := c.dbs[tenantID]; ok {
		return db, nil
	}
	db, err := chromem.NewPersistentDB(c.indexPath(tenantID), false)
	if err != nil {
		return nil, ragerr.Transient(err, "opening vector index for tenant %s", tenantID)
	}
	c.dbs[tenantID] = db
	return db, nil
}

// stubEmbeddingFunc satisfies chromem's collection API; all vectors are
// supplied explicitly so it must never be invoked.
func stubEmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding function must not be called")
	}
}

func (c *ChromemIndex) collection(tenantID string) (*chromem.Collection, error) {
	db, err := c.db(tenantID)
	if err != nil {
		return nil, err
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, stubEmbeddingFunc())
	if err != nil {
		return nil, ragerr.Internal(err, "opening collection for tenant %s", tenantID)
	}
	return col, nil
}

// Ensure creates the tenant's index. chromem sizes collections from the
// first vector, so dim is recorded for logging only.
func (c *ChromemIndex) Ensure(ctx context.Context, tenantID string, dim int) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	_, err := c.collection(tenantID)
	if err != nil {
		return err
	}
	if dim > 0 && c.dimension(tenantID) == 0 {
		c.recordDimension(tenantID, dim)
	}
	c.logger.Debug("vector index ready",
		zap.String("tenant_id", tenantID), zap.Int("dimension", dim))
	return nil
}

func (c *ChromemIndex) Add(ctx context.Context, tenantID, documentID string, vector []float32) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	lock := c.lockFor(tenantID)
	lock.Lock()
	defer lock.Unlock()

	// Dimension changed (tenant reconfigured its embedding model): rebuild
	// the index at the new dimension. Existing vectors are repopulated by
	// rag_rebuild_index.
	if dim := c.dimension(tenantID); dim != 0 && dim != len(vector) {
		if err := c.rebuildLocked(tenantID); err != nil {
			return err
		}
		c.logger.Warn("vector index rebuilt on dimension change",
			zap.String("tenant_id", tenantID),
			zap.Int("previous", dim), zap.Int("dimension", len(vector)))
	}

	col, err := c.collection(tenantID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        strconv.FormatUint(uint64(InternalID(documentID)), 10),
		Embedding: vector,
		Content:   documentID,
		Metadata:  map[string]string{"document_id": documentID},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return ragerr.Transient(err, "adding vector for tenant %s", tenantID)
	}
	c.recordDimension(tenantID, len(vector))
	return nil
}

// rebuildLocked drops and recreates the tenant's database. Caller holds the
// tenant write lock.
func (c *ChromemIndex) rebuildLocked(tenantID string) error {
	c.mu.Lock()
	delete(c.dbs, tenantID)
	delete(c.dims, tenantID)
	c.mu.Unlock()
	os.Remove(c.dimPath(tenantID))
	if err := os.RemoveAll(c.indexPath(tenantID)); err != nil {
		return ragerr.Internal(err, "rebuilding vector index for tenant %s", tenantID)
	}
	_, err := c.collection(tenantID)
	return err
}

func (c *ChromemIndex) Search(ctx context.Context, tenantID string, vector []float32, k int) ([]Hit, error) {
	if err := guard(ctx, tenantID); err != nil {
		return nil, err
	}
	lock := c.lockFor(tenantID)
	lock.RLock()
	defer lock.RUnlock()

	col, err := c.collection(tenantID)
	if err != nil {
		return nil, err
	}
	// chromem requires k <= document count.
	if n := col.Count(); n == 0 {
		return nil, nil
	} else if k > n {
		k = n
	}
	results, err := col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, ragerr.Transient(err, "querying vector index for tenant %s", tenantID)
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseUint(r.ID, 10, 32)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{InternalID: uint32(id), Raw: r.Similarity})
	}
	return hits, nil
}

func (c *ChromemIndex) Remove(ctx context.Context, tenantID, documentID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	lock := c.lockFor(tenantID)
	lock.Lock()
	defer lock.Unlock()

	col, err := c.collection(tenantID)
	if err != nil {
		return err
	}
	id := strconv.FormatUint(uint64(InternalID(documentID)), 10)
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return ragerr.Transient(err, "removing vector for tenant %s", tenantID)
	}
	return nil
}

// Save is a no-op: chromem's persistent DB flushes on every write.
func (c *ChromemIndex) Save(ctx context.Context, tenantID string) error {
	return guard(ctx, tenantID)
}

func (c *ChromemIndex) DeleteIndex(ctx context.Context, tenantID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	lock := c.lockFor(tenantID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	delete(c.dbs, tenantID)
	delete(c.dims, tenantID)
	c.mu.Unlock()
	os.Remove(c.dimPath(tenantID))
	if err := os.RemoveAll(c.indexPath(tenantID)); err != nil {
		return ragerr.Internal(err, "deleting vector index for tenant %s", tenantID)
	}
	return nil
}

func (c *ChromemIndex) Count(ctx context.Context, tenantID string) (int, error) {
	if err := guard(ctx, tenantID); err != nil {
		return 0, err
	}
	lock := c.lockFor(tenantID)
	lock.RLock()
	defer lock.RUnlock()

	col, err := c.collection(tenantID)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func (c *ChromemIndex) Metric() Metric { return MetricInnerProduct }

// Ping verifies the root is still writable.
func (c *ChromemIndex) Ping(ctx context.Context) error {
	if !writableDir(c.root) {
		return ragerr.Transient(nil, "vector root %s not writable", c.root)
	}
	return nil
}

var _ Index = (*ChromemIndex)(nil)
