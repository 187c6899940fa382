package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var calls []string
	stage := func(name string) Stage {
		return func(next Handler) Handler {
			return func(ctx context.Context, req *Request) (map[string]any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	h := func(ctx context.Context, req *Request) (map[string]any, error) {
		calls = append(calls, "handler")
		return nil, nil
	}

	_, err := Chain(h, stage("outer"), stage("inner"))(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}

func TestRequestHelpers(t *testing.T) {
	req := &Request{
		Headers: map[string]string{"X-API-Key": "k.s"},
		Args:    map[string]any{"tenant_id": "t1", "limit": 5},
	}
	assert.Equal(t, "k.s", req.Header("X-API-Key"))
	assert.Empty(t, req.Header("Authorization"))
	assert.Equal(t, "t1", req.StringArg("tenant_id"))
	// Mistyped and absent args read as empty.
	assert.Empty(t, req.StringArg("limit"))
	assert.Empty(t, req.StringArg("missing"))
}
