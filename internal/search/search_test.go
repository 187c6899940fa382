package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/vectorstore"
)

func TestOptionsNormalizeDefaults(t *testing.T) {
	opts := Options{Query: "hello"}
	require.NoError(t, opts.normalize())
	assert.Equal(t, ModeHybrid, opts.Mode)
	assert.Equal(t, DefaultTopK, opts.TopK)
	assert.Equal(t, DefaultVectorWeight, opts.VectorWeight)
	assert.Equal(t, DefaultKeywordWeight, opts.KeywordWeight)
}

func TestOptionsNormalizeValidation(t *testing.T) {
	err := (&Options{}).normalize()
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))

	err = (&Options{Query: "q", Mode: "semantic"}).normalize()
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))

	err = (&Options{Query: "q", VectorWeight: -1, KeywordWeight: 1}).normalize()
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestOptionsNormalizeCapsTopK(t *testing.T) {
	opts := Options{Query: "q", TopK: 5000}
	require.NoError(t, opts.normalize())
	assert.Equal(t, MaxTopK, opts.TopK)
}

func TestNormalizeVectorScore(t *testing.T) {
	// L2 distance zero is a perfect match; larger distances decay.
	assert.InDelta(t, 1.0, normalizeVectorScore(vectorstore.MetricL2, 0), 1e-9)
	assert.InDelta(t, 0.5, normalizeVectorScore(vectorstore.MetricL2, 1), 1e-9)
	assert.Greater(t,
		normalizeVectorScore(vectorstore.MetricL2, 0.5),
		normalizeVectorScore(vectorstore.MetricL2, 2.0))

	// Similarity metrics go through a sigmoid centered on zero.
	assert.InDelta(t, 0.5, normalizeVectorScore(vectorstore.MetricInnerProduct, 0), 1e-9)
	assert.Greater(t,
		normalizeVectorScore(vectorstore.MetricInnerProduct, 1.0),
		normalizeVectorScore(vectorstore.MetricInnerProduct, -1.0))
}

func pf(v float64) *float64 { return &v }

func vecResult(id string, score float64) Result {
	return Result{DocumentID: id, Score: score, VectorScore: pf(score)}
}

func kwResult(id string, score float64) Result {
	return Result{DocumentID: id, Score: score, KeywordScore: pf(score)}
}

func TestFuseBothArmsOutrankOne(t *testing.T) {
	opts := Options{TopK: 10, VectorWeight: 0.6, KeywordWeight: 0.4}
	vec := []Result{vecResult("both", 0.8), vecResult("vec-only", 0.8)}
	kw := []Result{kwResult("both", 0.8), kwResult("kw-only", 0.8)}

	out := fuse(vec, kw, opts)
	require.Len(t, out, 3)
	assert.Equal(t, "both", out[0].DocumentID)
	assert.InDelta(t, 0.8, out[0].Score, 1e-9)
	// Absent arm contributes zero.
	assert.Equal(t, "vec-only", out[1].DocumentID)
	assert.InDelta(t, 0.6*0.8, out[1].Score, 1e-9)
	assert.Equal(t, "kw-only", out[2].DocumentID)
	assert.InDelta(t, 0.4*0.8, out[2].Score, 1e-9)
}

func TestFuseWeightNormalization(t *testing.T) {
	// Weights 3/2 behave identically to 0.6/0.4.
	vec := []Result{vecResult("a", 0.5)}
	kw := []Result{kwResult("a", 1.0)}

	out1 := fuse(vec, kw, Options{TopK: 10, VectorWeight: 3, KeywordWeight: 2})
	out2 := fuse(vec, kw, Options{TopK: 10, VectorWeight: 0.6, KeywordWeight: 0.4})
	require.Len(t, out1, 1)
	require.Len(t, out2, 1)
	assert.InDelta(t, out2[0].Score, out1[0].Score, 1e-9)
	assert.InDelta(t, 0.6*0.5+0.4*1.0, out1[0].Score, 1e-9)
}

func TestFuseTieBreaks(t *testing.T) {
	opts := Options{TopK: 10, VectorWeight: 0.5, KeywordWeight: 0.5}

	// Same fused score: vector rank decides.
	vec := []Result{vecResult("first", 0.4), vecResult("second", 0.4)}
	out := fuse(vec, nil, opts)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].DocumentID)
	assert.Equal(t, "second", out[1].DocumentID)

	// Keyword-only ties fall back to document ID.
	kw := []Result{kwResult("zeta", 0.4), kwResult("alpha", 0.4)}
	out = fuse(nil, kw, opts)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].DocumentID)
	assert.Equal(t, "zeta", out[1].DocumentID)

	// A vector-arm document outranks a keyword-only document at equal score.
	out = fuse([]Result{vecResult("v", 0.4)}, []Result{kwResult("k", 0.4)}, opts)
	require.Len(t, out, 2)
	assert.Equal(t, "v", out[0].DocumentID)
}

func TestFuseTrimsToTopK(t *testing.T) {
	vec := []Result{vecResult("a", 0.9), vecResult("b", 0.8), vecResult("c", 0.7)}
	out := fuse(vec, nil, Options{TopK: 2, VectorWeight: 1, KeywordWeight: 1})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].DocumentID)
	assert.Equal(t, "b", out[1].DocumentID)
}

func TestFusePerArmScoresPreserved(t *testing.T) {
	out := fuse(
		[]Result{vecResult("a", 0.9)},
		[]Result{kwResult("a", 0.3)},
		Options{TopK: 10, VectorWeight: 0.6, KeywordWeight: 0.4})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].VectorScore)
	require.NotNil(t, out[0].KeywordScore)
	assert.InDelta(t, 0.9, *out[0].VectorScore, 1e-9)
	assert.InDelta(t, 0.3, *out[0].KeywordScore, 1e-9)
	assert.InDelta(t, 0.6*0.9+0.4*0.3, out[0].Score, 1e-9)
}

func TestTrim(t *testing.T) {
	rs := []Result{{DocumentID: "a"}, {DocumentID: "b"}}
	assert.Len(t, trim(rs, 1), 1)
	assert.Len(t, trim(rs, 5), 2)
}
