// Package embeddings turns document and query text into vectors.
//
// Three providers are available: a local deterministic hash embedder for
// development and tests, a TEI-compatible HTTP service, and OpenAI. The
// provider and model are fixed per tenant in the tenant configuration;
// changing the model changes the dimension and forces an index rebuild.
package embeddings

import (
	"context"
	"fmt"
)

// Provider produces embedding vectors for text.
type Provider interface {
	// Embed returns one vector per input text, each of Dimension() length.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the fixed output vector length.
	Dimension() int
	// Model names the underlying model, recorded per tenant.
	Model() string
	Close() error
}

// Config selects and configures a provider.
type Config struct {
	// Provider is "local", "tei" or "openai".
	Provider string
	Model    string
	// Dimension applies to the local provider; remote providers report
	// their own.
	Dimension int
	// Endpoint is the TEI base URL.
	Endpoint string
	// APIKey authenticates the OpenAI provider.
	APIKey string
}

// New creates the configured provider.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.Model, cfg.Dimension), nil
	case "tei":
		return NewTEI(cfg.Endpoint, cfg.Model)
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Provider)
	}
}

// EmbedOne is a convenience wrapper for single-text callers.
func EmbedOne(ctx context.Context, p Provider, text string) ([]float32, error) {
	vecs, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}
