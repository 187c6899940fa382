package embeddings

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

const defaultLocalDimension = 384

// Local is a deterministic hash-based embedder. It has no semantic power
// but identical text always maps to the identical unit vector, which is
// what dedup, rebuild validation and tests need without a model server.
type Local struct {
	model string
	dim   int
}

// NewLocal builds the local embedder.
func NewLocal(model string, dim int) *Local {
	if model == "" {
		model = "local-hash"
	}
	if dim <= 0 {
		dim = defaultLocalDimension
	}
	return &Local{model: model, dim: dim}
}

func (l *Local) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ragerr.Validation("texts", "texts must not be empty")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ragerr.Transient(ctx.Err(), "embedding cancelled")
		default:
		}
		out[i] = l.embedOne(text)
	}
	return out, nil
}

func (l *Local) embedOne(text string) []float32 {
	vec := make([]float32, l.dim)
	// Seed each component from an fnv hash of the text plus the component
	// index, then normalize to unit length.
	var norm float64
	for i := range vec {
		h := fnv.New64a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		v := float64(int64(h.Sum64()%2000001)-1000000) / 1000000.0
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func (l *Local) Dimension() int { return l.dim }
func (l *Local) Model() string  { return l.model }
func (l *Local) Close() error   { return nil }

var _ Provider = (*Local)(nil)
