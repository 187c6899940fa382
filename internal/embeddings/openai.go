package embeddings

import (
	"context"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAI embeds through the OpenAI embeddings API.
type OpenAI struct {
	llm   *openai.LLM
	model string
	dim   int
}

// NewOpenAI builds the OpenAI provider.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if model == "" {
		model = "text-embedding-3-small"
	}
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, ragerr.Internal(err, "creating openai client")
	}
	dim, ok := openAIDimensions[model]
	if !ok {
		dim = 1536
	}
	return &OpenAI{llm: llm, model: model, dim: dim}, nil
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ragerr.Validation("texts", "texts must not be empty")
	}
	vecs, err := o.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, ragerr.Transient(err, "calling openai embeddings")
	}
	return vecs, nil
}

func (o *OpenAI) Dimension() int { return o.dim }
func (o *OpenAI) Model() string  { return o.model }
func (o *OpenAI) Close() error   { return nil }

var _ Provider = (*OpenAI)(nil)
