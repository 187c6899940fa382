package vectorstore

import (
	"context"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// QdrantIndex implements Index against a Qdrant server over gRPC. One
// collection per tenant, named tenant_{tenant_id} (dashes folded to
// underscores to satisfy Qdrant naming rules).
//
// Collections use Euclidean distance, so Metric() is MetricL2 and the search
// layer applies the 1/(1+d) normalization. Qdrant returns the raw distance in
// ScoredPoint.Score for Euclid collections.
type QdrantIndex struct {
	client *qdrant.Client
	logger *zap.Logger
}

// QdrantConfig holds gRPC connection settings. Port is the gRPC port (6334),
// not the HTTP port.
type QdrantConfig struct {
	Host string
	Port int
}

// NewQdrantIndex connects to Qdrant.
func NewQdrantIndex(cfg QdrantConfig, logger *zap.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Host, Port: cfg.Port})
	if err != nil {
		return nil, ragerr.Transient(err, "connecting to qdrant")
	}
	return &QdrantIndex{client: client, logger: logger}, nil
}

func qdrantCollection(tenantID string) string {
	return "tenant_" + strings.ReplaceAll(tenantID, "-", "_")
}

func (q *QdrantIndex) Ensure(ctx context.Context, tenantID string, dim int) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	name := qdrantCollection(tenantID)
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return ragerr.Transient(err, "checking collection for tenant %s", tenantID)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return ragerr.Transient(err, "creating collection for tenant %s", tenantID)
	}
	return nil
}

func (q *QdrantIndex) Add(ctx context.Context, tenantID, documentID string, vector []float32) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	if err := q.ensureDimension(ctx, tenantID, len(vector)); err != nil {
		return err
	}
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(uint64(InternalID(documentID))),
		Vectors: qdrant.NewVectors(vector...),
		Payload: map[string]*qdrant.Value{
			"document_id": {Kind: &qdrant.Value_StringValue{StringValue: documentID}},
			"tenant_id":   {Kind: &qdrant.Value_StringValue{StringValue: tenantID}},
		},
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: qdrantCollection(tenantID),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return ragerr.Transient(err, "upserting vector for tenant %s", tenantID)
	}
	return nil
}

// ensureDimension recreates the collection when the tenant's embedding
// dimension changed.
func (q *QdrantIndex) ensureDimension(ctx context.Context, tenantID string, dim int) error {
	name := qdrantCollection(tenantID)
	info, err := q.client.GetCollectionInfo(ctx, name)
	if err != nil {
		// Collection may not exist yet.
		return q.Ensure(ctx, tenantID, dim)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params != nil && params.GetSize() != uint64(dim) {
		q.logger.Warn("qdrant collection rebuilt on dimension change",
			zap.String("tenant_id", tenantID),
			zap.Uint64("old", params.GetSize()), zap.Int("new", dim))
		if err := q.client.DeleteCollection(ctx, name); err != nil {
			return ragerr.Transient(err, "dropping collection for tenant %s", tenantID)
		}
		return q.Ensure(ctx, tenantID, dim)
	}
	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, tenantID string, vector []float32, k int) ([]Hit, error) {
	if err := guard(ctx, tenantID); err != nil {
		return nil, err
	}
	// Defense in depth: the collection is already tenant-private, but the
	// payload filter rejects any cross-tenant point that could have been
	// written by a bug elsewhere.
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   "tenant_id",
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: tenantID}},
				},
			},
		}},
	}
	res, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: qdrantCollection(tenantID),
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         filter,
	})
	if err != nil {
		return nil, ragerr.Transient(err, "querying qdrant for tenant %s", tenantID)
	}
	hits := make([]Hit, 0, len(res))
	for _, p := range res {
		num := p.GetId().GetNum()
		hits = append(hits, Hit{InternalID: uint32(num), Raw: p.GetScore()})
	}
	return hits, nil
}

func (q *QdrantIndex) Remove(ctx context.Context, tenantID, documentID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: qdrantCollection(tenantID),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{qdrant.NewIDNum(uint64(InternalID(documentID)))},
				},
			},
		},
	})
	if err != nil {
		return ragerr.Transient(err, "removing vector for tenant %s", tenantID)
	}
	return nil
}

// Save is a no-op: durability is server-side.
func (q *QdrantIndex) Save(ctx context.Context, tenantID string) error {
	return guard(ctx, tenantID)
}

func (q *QdrantIndex) DeleteIndex(ctx context.Context, tenantID string) error {
	if err := guard(ctx, tenantID); err != nil {
		return err
	}
	if err := q.client.DeleteCollection(ctx, qdrantCollection(tenantID)); err != nil {
		return ragerr.Transient(err, "deleting collection for tenant %s", tenantID)
	}
	return nil
}

func (q *QdrantIndex) Count(ctx context.Context, tenantID string) (int, error) {
	if err := guard(ctx, tenantID); err != nil {
		return 0, err
	}
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: qdrantCollection(tenantID),
	})
	if err != nil {
		return 0, ragerr.Transient(err, "counting vectors for tenant %s", tenantID)
	}
	return int(n), nil
}

func (q *QdrantIndex) Metric() Metric { return MetricL2 }

func (q *QdrantIndex) Ping(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return ragerr.Transient(err, "qdrant health check")
	}
	return nil
}

var _ Index = (*QdrantIndex)(nil)
