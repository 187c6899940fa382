// Package pipeline is the tool-dispatch middleware chain. Every tool call,
// regardless of transport, passes through the same ordered stages:
// authentication, tenant validation, rate limiting, authorization, audit
// and observability.
package pipeline

import (
	"context"
)

// Request is one tool invocation after transport decoding.
type Request struct {
	Tool string
	Args map[string]any
	// Headers carries transport metadata (Authorization, X-API-Key,
	// X-Tenant-ID) in canonical form.
	Headers   map[string]string
	RemoteIP  string
	SessionID string
}

// Header reads a request header, case-insensitively on the common forms.
func (r *Request) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	return ""
}

// StringArg reads a string argument, empty when absent or mistyped.
func (r *Request) StringArg(name string) string {
	v, _ := r.Args[name].(string)
	return v
}

// Handler executes a tool and returns its result payload.
type Handler func(ctx context.Context, req *Request) (map[string]any, error)

// Stage wraps a handler with cross-cutting behavior.
type Stage func(next Handler) Handler

// Chain composes stages around a handler; the first stage is outermost.
func Chain(h Handler, stages ...Stage) Handler {
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}
