// Package ragerr defines the error taxonomy shared by every layer of the
// platform. Errors carry a Kind (the taxonomy bucket), a short machine code,
// and an optional field name for validation failures. Kinds map 1:1 to HTTP
// status codes at the REST facade and to the wire error envelope on tool
// results.
package ragerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the taxonomy bucket of an error.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthentication  Kind = "authentication"
	KindAuthorization   Kind = "authorization"
	KindTenantIsolation Kind = "tenant_isolation"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindRateLimited     Kind = "rate_limited"
	KindTransient       Kind = "transient"
	KindInternal        Kind = "internal"
)

// Error is a typed platform error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Field names the offending input field for validation errors.
	Field string

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Kind so callers can write errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// New creates an error of the given kind.
func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new typed error.
func Wrap(err error, kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// Validation creates a validation error for a specific input field.
func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_argument", Field: field, Message: fmt.Sprintf(format, args...)}
}

func Authentication(format string, args ...any) *Error {
	return New(KindAuthentication, "unauthenticated", format, args...)
}

func Authorization(format string, args ...any) *Error {
	return New(KindAuthorization, "forbidden", format, args...)
}

func TenantIsolation(format string, args ...any) *Error {
	return New(KindTenantIsolation, "tenant_mismatch", format, args...)
}

func NotFound(resource, id string) *Error {
	return New(KindNotFound, "not_found", "%s %q not found", resource, id)
}

func Conflict(code, format string, args ...any) *Error {
	return New(KindConflict, code, format, args...)
}

func RateLimited(tenantID string) *Error {
	return New(KindRateLimited, "rate_limit_exceeded", "rate limit exceeded for tenant %s", tenantID)
}

func Transient(err error, format string, args ...any) *Error {
	return Wrap(err, KindTransient, "backend_unavailable", format, args...)
}

func Internal(err error, format string, args ...any) *Error {
	return Wrap(err, KindInternal, "internal", format, args...)
}

// KindOf extracts the Kind from any error. Untyped errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError unwraps err to an *Error, synthesizing an internal one when untyped.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, "unexpected error")
}

// HTTPStatus maps a kind to the REST facade status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization, KindTenantIsolation:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Envelope renders the wire error envelope: {error_kind, error_code, message, field?}.
func Envelope(err error) map[string]any {
	e := AsError(err)
	env := map[string]any{
		"error_kind": string(e.Kind),
		"error_code": e.Code,
		"message":    e.Message,
	}
	if e.Field != "" {
		env["field"] = e.Field
	}
	return env
}
