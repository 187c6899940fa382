package search

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

type armResult struct {
	name    string
	results []Result
	err     error
}

// hybrid runs both arms concurrently, each under its own timeout, then
// fuses the results. One failed arm degrades the search to the surviving
// arm; both failing yields an empty failed-mode response. Arm failures are
// logged, never surfaced to the caller as errors.
func (e *Engine) hybrid(ctx context.Context, tenantID string, opts Options) (*Response, error) {
	ch := make(chan armResult, 2)

	runArm := func(name string, fn func(context.Context, string, Options) ([]Result, error)) {
		armCtx, cancel := context.WithTimeout(ctx, armTimeout)
		defer cancel()
		results, err := fn(armCtx, tenantID, opts)
		ch <- armResult{name: name, results: results, err: err}
	}
	go runArm(ModeVector, e.vectorArm)
	go runArm(ModeKeyword, e.keywordArm)

	arms := make(map[string]armResult, 2)
	for i := 0; i < 2; i++ {
		r := <-ch
		arms[r.name] = r
	}

	vec, kw := arms[ModeVector], arms[ModeKeyword]
	switch {
	case vec.err != nil && kw.err != nil:
		e.logger.Error("both search arms failed",
			zap.String("tenant_id", tenantID),
			zap.NamedError("vector", vec.err), zap.NamedError("keyword", kw.err))
		return &Response{
			Results:  []Result{},
			ModeUsed: ModeFailed,
			Degraded: true,
			Warnings: []string{"vector search unavailable", "keyword search unavailable"},
		}, nil
	case vec.err != nil:
		e.logger.Warn("vector arm failed, degrading to keyword",
			zap.String("tenant_id", tenantID), zap.Error(vec.err))
		return &Response{
			Results:   trim(kw.results, opts.TopK),
			ModeUsed:  ModeKeywordOnly,
			KeywordOK: true,
			Degraded:  true,
			Warnings:  []string{"vector search unavailable"},
		}, nil
	case kw.err != nil:
		e.logger.Warn("keyword arm failed, degrading to vector",
			zap.String("tenant_id", tenantID), zap.Error(kw.err))
		return &Response{
			Results:  trim(vec.results, opts.TopK),
			ModeUsed: ModeVectorOnly,
			VectorOK: true,
			Degraded: true,
			Warnings: []string{"keyword search unavailable"},
		}, nil
	}

	return &Response{
		Results:   fuse(vec.results, kw.results, opts),
		ModeUsed:  ModeHybrid,
		VectorOK:  true,
		KeywordOK: true,
	}, nil
}

// fuse combines the two arms with weight-normalized scoring. A document
// absent from one arm contributes zero for that arm, so appearing in both
// arms always outranks appearing in one at equal per-arm scores.
func fuse(vec, kw []Result, opts Options) []Result {
	wSum := opts.VectorWeight + opts.KeywordWeight
	wv := opts.VectorWeight / wSum
	wk := opts.KeywordWeight / wSum

	merged := make(map[string]*Result)
	vectorRank := make(map[string]int, len(vec))
	for i, r := range vec {
		score := *r.VectorScore
		merged[r.DocumentID] = &Result{DocumentID: r.DocumentID, VectorScore: &score}
		vectorRank[r.DocumentID] = i
	}
	for _, r := range kw {
		score := *r.KeywordScore
		if m, ok := merged[r.DocumentID]; ok {
			m.KeywordScore = &score
		} else {
			merged[r.DocumentID] = &Result{DocumentID: r.DocumentID, KeywordScore: &score}
		}
	}

	out := make([]Result, 0, len(merged))
	for _, m := range merged {
		var v, k float64
		if m.VectorScore != nil {
			v = *m.VectorScore
		}
		if m.KeywordScore != nil {
			k = *m.KeywordScore
		}
		m.Score = wv*v + wk*k
		out = append(out, *m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		// Ties resolve by vector rank, then keyword score, then ID so
		// results are stable across runs.
		ri, iOK := vectorRank[out[i].DocumentID]
		rj, jOK := vectorRank[out[j].DocumentID]
		if iOK != jOK {
			return iOK
		}
		if iOK && ri != rj {
			return ri < rj
		}
		var ki, kj float64
		if out[i].KeywordScore != nil {
			ki = *out[i].KeywordScore
		}
		if out[j].KeywordScore != nil {
			kj = *out[j].KeywordScore
		}
		if ki != kj {
			return ki > kj
		}
		return out[i].DocumentID < out[j].DocumentID
	})

	return trim(out, opts.TopK)
}

func trim(rs []Result, k int) []Result {
	if len(rs) > k {
		return rs[:k]
	}
	return rs
}
