package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/tenantctx"
)

func principalCtx(role tenantctx.Role) context.Context {
	return tenantctx.WithPrincipal(context.Background(), &tenantctx.Principal{
		TenantID: "t1",
		UserID:   "u1",
		Role:     role,
	})
}

func TestMemoryUserOwnUserRule(t *testing.T) {
	ctx := principalCtx(tenantctx.RoleEndUser)

	p, err := memoryUser(ctx, &pipeline.Request{})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)

	p, err = memoryUser(ctx, &pipeline.Request{Args: map[string]any{"user_id": "u1"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)

	_, err = memoryUser(ctx, &pipeline.Request{Args: map[string]any{"user_id": "u2"}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindAuthorization, ragerr.KindOf(err))

	// The rule binds every role, admins included.
	_, err = memoryUser(principalCtx(tenantctx.RoleUberAdmin),
		&pipeline.Request{Args: map[string]any{"user_id": "u2"}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindAuthorization, ragerr.KindOf(err))

	_, err = memoryUser(context.Background(), &pipeline.Request{})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindTenantIsolation, ragerr.KindOf(err))
}

func TestUpdateMemoryValidation(t *testing.T) {
	h := &handlers{}
	ctx := principalCtx(tenantctx.RoleEndUser)

	_, err := h.updateMemory(ctx, &pipeline.Request{Args: map[string]any{"content": "c"}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))

	_, err = h.updateMemory(ctx, &pipeline.Request{Args: map[string]any{"key": "k"}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}

func TestSearchMemoryValidation(t *testing.T) {
	h := &handlers{}
	ctx := principalCtx(tenantctx.RoleEndUser)

	_, err := h.searchMemory(ctx, &pipeline.Request{Args: map[string]any{}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))

	_, err = h.searchMemory(ctx, &pipeline.Request{Args: map[string]any{
		"query": "q",
		"limit": float64(500),
	}})
	require.Error(t, err)
	assert.Equal(t, ragerr.KindValidation, ragerr.KindOf(err))
}
