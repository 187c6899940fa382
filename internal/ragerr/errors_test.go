package ragerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	err := New(KindConflict, "duplicate", "document %s already exists", "doc-1")
	assert.Equal(t, "conflict: document doc-1 already exists", err.Error())

	wrapped := Wrap(errors.New("dial tcp: refused"), KindTransient, "backend_unavailable", "redis down")
	assert.Equal(t, "transient: redis down: dial tcp: refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause, "storage failed")
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesOnKind(t *testing.T) {
	err := NotFound("document", "doc-1")
	assert.True(t, errors.Is(err, &Error{Kind: KindNotFound}))
	assert.False(t, errors.Is(err, &Error{Kind: KindConflict}))
	// Code narrows the match when set on the target.
	assert.True(t, errors.Is(err, &Error{Kind: KindNotFound, Code: "not_found"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound, Code: "gone"}))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("query", "required")))
	assert.Equal(t, KindRateLimited, KindOf(RateLimited("t1")))
	assert.Equal(t, KindTenantIsolation, KindOf(TenantIsolation("mismatch")))

	// Typed errors are found through wrapping.
	wrapped := fmt.Errorf("handler: %w", Authentication("no credentials"))
	assert.Equal(t, KindAuthentication, KindOf(wrapped))

	// Untyped errors default to internal.
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestAsErrorSynthesizesInternal(t *testing.T) {
	e := AsError(errors.New("plain"))
	require.NotNil(t, e)
	assert.Equal(t, KindInternal, e.Kind)

	orig := Authorization("forbidden tool")
	assert.Same(t, orig, AsError(orig))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindAuthentication:  http.StatusUnauthorized,
		KindAuthorization:   http.StatusForbidden,
		KindTenantIsolation: http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindRateLimited:     http.StatusTooManyRequests,
		KindTransient:       http.StatusServiceUnavailable,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Kind("unknown")))
}

func TestEnvelope(t *testing.T) {
	env := Envelope(Validation("limit", "must be between 1 and 100"))
	assert.Equal(t, "validation", env["error_kind"])
	assert.Equal(t, "invalid_argument", env["error_code"])
	assert.Equal(t, "must be between 1 and 100", env["message"])
	assert.Equal(t, "limit", env["field"])

	env = Envelope(errors.New("plain"))
	assert.Equal(t, "internal", env["error_kind"])
	assert.NotContains(t, env, "field")
}
