package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Bionic-AI-Solutions/FAISS-RAG-sub001/internal/ragerr"
)

// TEI calls a text-embeddings-inference compatible HTTP service.
type TEI struct {
	endpoint string
	model    string
	client   *http.Client

	dim int
}

// NewTEI connects to the service and probes the output dimension with a
// single embed call so callers get a fixed Dimension() up front.
func NewTEI(endpoint, model string) (*TEI, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("tei endpoint is required")
	}
	t := &TEI{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	vecs, err := t.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return nil, err
	}
	t.dim = len(vecs[0])
	return t, nil
}

type teiRequest struct {
	Inputs []string `json:"inputs"`
}

func (t *TEI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ragerr.Validation("texts", "texts must not be empty")
	}
	body, err := json.Marshal(teiRequest{Inputs: texts})
	if err != nil {
		return nil, ragerr.Internal(err, "encoding embed request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, ragerr.Internal(err, "building embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, ragerr.Transient(err, "calling embedding service")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, ragerr.Transient(fmt.Errorf("status %d: %s", resp.StatusCode, msg), "embedding service error")
	}

	var vecs [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vecs); err != nil {
		return nil, ragerr.Transient(err, "decoding embed response")
	}
	if len(vecs) != len(texts) {
		return nil, ragerr.Transient(fmt.Errorf("got %d vectors for %d texts", len(vecs), len(texts)), "embedding count mismatch")
	}
	return vecs, nil
}

func (t *TEI) Dimension() int { return t.dim }
func (t *TEI) Model() string  { return t.model }
func (t *TEI) Close() error   { return nil }

var _ Provider = (*TEI)(nil)
