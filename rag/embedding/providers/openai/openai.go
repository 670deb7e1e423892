// Package openai implements embedding.Embedder against the OpenAI-compatible
// /embeddings REST endpoint, using the shared internal/httpclient helper
// rather than a dedicated SDK so that any OpenAI-compatible BaseURL works.
package openai

import (
	"context"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/internal/httpclient"
	"github.com/lookatitude/skill-engine/rag/embedding"
)

const (
	defaultModel      = "text-embedding-3-small"
	defaultDimensions = 1536
	defaultBaseURL    = "https://api.openai.com/v1"
)

var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// Embedder calls the OpenAI embeddings API.
type Embedder struct {
	client *httpclient.Client
	model  string
	dims   int
}

// New builds an openai Embedder. cfg.BaseURL overrides the API base (used
// for OpenAI-compatible endpoints and tests); cfg.Options["dimensions"]
// overrides the model's default vector length.
func New(cfg config.ProviderConfig) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	dims := defaultDimensions
	if d, ok := modelDimensions[model]; ok {
		dims = d
	}
	if v, ok := config.GetOption[float64](cfg, "dimensions"); ok && v > 0 {
		dims = int(v)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	opts := []httpclient.Option{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithBearerToken(cfg.APIKey),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}

	return &Embedder{
		client: httpclient.New(opts...),
		model:  model,
		dims:   dims,
	}, nil
}

func init() {
	embedding.Register("openai", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

// Dimensions returns the vector length this embedder's model produces.
func (e *Embedder) Dimensions() int { return e.dims }

type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingDatum struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingDatum `json:"data"`
}

// Embed embeds a batch of texts in a single request, returning vectors in
// input order regardless of the order the API reports indices in.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := embeddingRequest{
		Model:          e.model,
		Input:          texts,
		EncodingFormat: "float",
	}

	resp, err := httpclient.DoJSON[embeddingResponse](ctx, e.client, "POST", "/embeddings", req)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// EmbedSingle embeds one text.
func (e *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
