package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

func echoHandler(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
	return map[string]any{"tool": req.Tool}, nil
}

func TestDispatchRunsHandler(t *testing.T) {
	d := New(nil)
	d.Register("rag_search", echoHandler)

	out, err := d.Dispatch(context.Background(), &pipeline.Request{Tool: "rag_search"})
	require.NoError(t, err)
	assert.Equal(t, "rag_search", out["tool"])
}

func TestDispatchUnknownTool(t *testing.T) {
	d := New(nil)
	_, err := d.Dispatch(context.Background(), &pipeline.Request{Tool: "rag_missing"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindNotFound, ragerr.KindOf(err))
}

func TestDispatchAppliesStagesInOrder(t *testing.T) {
	var calls []string
	stage := func(name string) pipeline.Stage {
		return func(next pipeline.Handler) pipeline.Handler {
			return func(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	d := New(nil, stage("first"), stage("second"))
	d.Register("tool", func(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
		calls = append(calls, "handler")
		return nil, nil
	})

	_, err := d.Dispatch(context.Background(), &pipeline.Request{Tool: "tool"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "handler"}, calls)
}

func TestDispatchStageShortCircuits(t *testing.T) {
	deny := func(next pipeline.Handler) pipeline.Handler {
		return func(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
			return nil, ragerr.Authorization("denied")
		}
	}
	d := New(nil, deny)
	called := false
	d.Register("tool", func(ctx context.Context, req *pipeline.Request) (map[string]any, error) {
		called = true
		return nil, nil
	})

	_, err := d.Dispatch(context.Background(), &pipeline.Request{Tool: "tool"})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindAuthorization, ragerr.KindOf(err))
	assert.False(t, called)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	d := New(nil)
	d.Register("tool", echoHandler)
	assert.Panics(t, func() { d.Register("tool", echoHandler) })
}

func TestToolsSorted(t *testing.T) {
	d := New(nil)
	d.Register("b_tool", echoHandler)
	d.Register("a_tool", echoHandler)
	assert.Equal(t, []string{"a_tool", "b_tool"}, d.Tools())
}
