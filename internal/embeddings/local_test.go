package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

func TestLocalDeterministic(t *testing.T) {
	l := NewLocal("", 0)
	ctx := context.Background()

	a, err := l.Embed(ctx, []string{"hello world"})
	require.NoError(t, err)
	b, err := l.Embed(ctx, []string{"hello world"})
	require.NoError(t, err)
	assert.Equal(t, a[0], b[0])

	c, err := l.Embed(ctx, []string{"something else"})
	require.NoError(t, err)
	assert.NotEqual(t, a[0], c[0])
}

func TestLocalDimensionAndNorm(t *testing.T) {
	l := NewLocal("local-hash", 64)
	assert.Equal(t, 64, l.Dimension())
	assert.Equal(t, "local-hash", l.Model())

	vecs, err := l.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	for _, vec := range vecs {
		require.Len(t, vec, 64)
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
	}
}

func TestLocalDefaults(t *testing.T) {
	l := NewLocal("", -1)
	assert.Equal(t, defaultLocalDimension, l.Dimension())
	assert.Equal(t, "local-hash", l.Model())
}

func TestLocalEmptyInput(t *testing.T) {
	_, err := NewLocal("", 0).Embed(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestEmbedOne(t *testing.T) {
	l := NewLocal("", 32)
	vec, err := EmbedOne(context.Background(), l, "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 32)
}
