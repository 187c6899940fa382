package pipeline

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/logging"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

var toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "ragd_tool_duration_seconds",
	Help:    "Tool execution latency by tool and outcome.",
	Buckets: prometheus.DefBuckets,
}, []string{"tool", "status"})

// ObserveStage opens a span per tool call, logs the outcome with the
// tenant context fields and records the latency histogram. It runs
// innermost, after tenant resolution, so the span carries the identity
// the handler actually executed under.
func ObserveStage(logger *zap.Logger) Stage {
	tracer := otel.Tracer("ragd/pipeline")
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (map[string]any, error) {
			ctx, span := tracer.Start(ctx, "tool."+req.Tool)
			defer span.End()
			span.SetAttributes(attribute.String("tool.name", req.Tool))
			if p, err := tenantctx.FromContext(ctx); err == nil {
				span.SetAttributes(
					attribute.String("tenant.id", p.TenantID),
					attribute.String("user.id", p.UserID),
					attribute.String("user.role", string(p.Role)))
			}

			start := time.Now()
			result, err := next(ctx, req)
			elapsed := time.Since(start)

			status := "success"
			log := logging.For(ctx, logger).With(
				zap.String("tool", req.Tool),
				zap.Duration("duration", elapsed))
			if err != nil {
				status = "error"
				span.RecordError(err)
				span.SetStatus(codes.Error, string(ragerr.KindOf(err)))
				log.Warn("tool call failed",
					zap.String("error_kind", string(ragerr.KindOf(err))), zap.Error(err))
			} else {
				log.Info("tool call completed")
			}
			toolDuration.WithLabelValues(req.Tool, status).Observe(elapsed.Seconds())
			return result, err
		}
	}
}
