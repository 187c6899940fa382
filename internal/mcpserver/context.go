package mcpserver

import "context"

type headersKey struct{}
type remoteKey struct{}

// Remote is transport-level request metadata.
type Remote struct {
	IP        string
	SessionID string
}

// WithHeaders stashes transport credential headers for the pipeline. The
// stdio transport uses this to inject credentials from the environment.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	return context.WithValue(ctx, headersKey{}, headers)
}

// HeadersFromContext returns the stashed headers, never nil.
func HeadersFromContext(ctx context.Context) map[string]string {
	if h, ok := ctx.Value(headersKey{}).(map[string]string); ok {
		return h
	}
	return map[string]string{}
}

// WithRemote stashes transport metadata.
func WithRemote(ctx context.Context, r *Remote) context.Context {
	return context.WithValue(ctx, remoteKey{}, r)
}

// RemoteFromContext returns the stashed metadata, nil when absent.
func RemoteFromContext(ctx context.Context) *Remote {
	r, _ := ctx.Value(remoteKey{}).(*Remote)
	return r
}
