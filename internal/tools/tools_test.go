package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/dispatch"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/pipeline"
	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/rbac"
)

func newRegisteredDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	d := dispatch.New(nil)
	RegisterAll(d, Deps{})
	return d
}

func TestArgReaders(t *testing.T) {
	req := &pipeline.Request{Args: map[string]any{
		"name":    "doc",
		"limit":   float64(25),
		"count":   7,
		"enabled": true,
		"filters": map[string]any{
			"tags": []any{"a", 3, "b"},
			"from": "2026-01-02T15:04:05Z",
			"to":   "not-a-time",
		},
	}}

	assert.Equal(t, "doc", argString(req, "name"))
	assert.Empty(t, argString(req, "limit"))

	// JSON decoding delivers numbers as float64; native ints also work.
	assert.Equal(t, 25, argInt(req, "limit", 10))
	assert.Equal(t, 7, argInt(req, "count", 10))
	assert.Equal(t, 10, argInt(req, "missing", 10))

	assert.True(t, argBool(req, "enabled"))
	assert.False(t, argBool(req, "missing"))

	filters := argMap(req, "filters")
	require.NotNil(t, filters)
	assert.Nil(t, argMap(req, "missing"))

	// Non-string entries are dropped.
	assert.Equal(t, []string{"a", "b"}, argStringSlice(filters, "tags"))

	from := argTime(filters, "from")
	require.NotNil(t, from)
	assert.Equal(t, 2026, from.Year())
	assert.Nil(t, argTime(filters, "to"))
	assert.Nil(t, argTime(filters, "missing"))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))

	long := strings.Repeat("ab", 150)
	out := snippet(long)
	assert.Equal(t, snippetLength+1, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))

	// Multibyte text truncates on rune boundaries.
	wide := strings.Repeat("ñ", 250)
	out = snippet(wide)
	assert.Equal(t, strings.Repeat("ñ", snippetLength)+"…", out)
}

func TestConfirmationLiterals(t *testing.T) {
	assert.Equal(t, "DELETE", ConfirmHardDelete)
	assert.Equal(t, "SOFT_DELETE", ConfirmSoftDelete)
	assert.Equal(t, "FR-BACKUP-004", ConfirmIndexRebuild)
}

func TestTierQuotas(t *testing.T) {
	assert.Equal(t, 60, tierRequestsPerMinute["free"])
	assert.Equal(t, 120, tierRequestsPerMinute["basic"])
	assert.Equal(t, 300, tierRequestsPerMinute["premium"])
	assert.Equal(t, 600, tierRequestsPerMinute["enterprise"])
}

func TestRegisterAllCoversMatrix(t *testing.T) {
	// Every tool in the permission matrix must have a registered handler
	// and vice versa.
	d := newRegisteredDispatcher(t)
	registered := d.Tools()
	assert.ElementsMatch(t, rbac.Tools(), registered)
}
