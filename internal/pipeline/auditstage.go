package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/audit"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// resultSummaryLimit bounds the serialized result stored in the
// post-execution audit record.
const resultSummaryLimit = 500

// AuditSink accepts audit entries. Satisfied by *audit.Recorder.
type AuditSink interface {
	Record(ctx context.Context, e audit.Entry)
}

// AuditStage writes two records per invocation: an optimistic
// pre-execution record carrying the argument map, and a post-execution
// record with outcome, latency and a truncated result summary. The post
// record is emitted from a defer so it fires on every exit path.
// Recording is asynchronous and never fails the request.
func AuditStage(rec AuditSink) Stage {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (result map[string]any, err error) {
			rec.Record(ctx, audit.Entry{
				Action:       "tool." + req.Tool,
				ResourceType: "tool",
				ResourceID:   req.Tool,
				Details: map[string]any{
					"phase": "pre_execution",
					"args":  req.Args,
				},
				Status: "success",
			})

			start := time.Now()
			defer func() {
				entry := audit.Entry{
					Action:       "tool." + req.Tool,
					ResourceType: "tool",
					ResourceID:   req.Tool,
					Details:      map[string]any{"phase": "post_execution"},
					Status:       "success",
					DurationMS:   time.Since(start).Milliseconds(),
				}
				if err != nil {
					entry.Status = "error"
					entry.Details["error_kind"] = string(ragerr.KindOf(err))
					entry.Details["error"] = err.Error()
				} else {
					entry.Details["result_summary"] = summarizeResult(result)
				}
				rec.Record(ctx, entry)
			}()

			return next(ctx, req)
		}
	}
}

// summarizeResult renders the handler result as JSON, truncated to
// resultSummaryLimit bytes.
func summarizeResult(result map[string]any) string {
	raw, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	if len(raw) > resultSummaryLimit {
		raw = raw[:resultSummaryLimit]
	}
	return string(raw)
}
