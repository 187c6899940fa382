package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func TestObserveStageSpanCarriesPrincipal(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	h := Chain(okHandler, ObserveStage(nil))

	ctx := tenantctx.WithPrincipal(context.Background(), &tenantctx.Principal{
		TenantID: "t1", UserID: "u1", Role: tenantctx.RoleEndUser,
	})
	_, err := h(ctx, &Request{Tool: "rag_search"})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.rag_search", spans[0].Name)

	attrs := make(map[attribute.Key]attribute.Value, len(spans[0].Attributes))
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "rag_search", attrs["tool.name"].AsString())
	assert.Equal(t, "t1", attrs["tenant.id"].AsString())
	assert.Equal(t, "u1", attrs["user.id"].AsString())
	assert.Equal(t, string(tenantctx.RoleEndUser), attrs["user.role"].AsString())
}
