// Package cohere implements embedding.Embedder against Cohere's /embed REST
// endpoint.
package cohere

import (
	"context"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/internal/httpclient"
	"github.com/lookatitude/skill-engine/rag/embedding"
)

const (
	defaultModel      = "embed-english-v3.0"
	defaultDimensions = 1024
	defaultBaseURL    = "https://api.cohere.com/v1"
	defaultInputType  = "search_document"
)

var modelDimensions = map[string]int{
	"embed-english-v3.0":       1024,
	"embed-multilingual-v3.0":  1024,
	"embed-english-light-v3.0": 384,
	"embed-english-v2.0":       4096,
}

// Embedder calls the Cohere embed API.
type Embedder struct {
	client    *httpclient.Client
	model     string
	dims      int
	inputType string
}

// New builds a cohere Embedder. cfg.Options["input_type"] selects Cohere's
// input_type field ("search_document" by default); cfg.Options["dimensions"]
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

	inputType := defaultInputType
	if v, ok := config.GetOption[string](cfg, "input_type"); ok && v != "" {
		inputType = v
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
		client:    httpclient.New(opts...),
		model:     model,
		dims:      dims,
		inputType: inputType,
	}, nil
}

func init() {
	embedding.Register("cohere", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

// Dimensions returns the vector length this embedder's model produces.
func (e *Embedder) Dimensions() int { return e.dims }

type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

// Embed embeds a batch of texts in a single request.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := embedRequest{
		Model:          e.model,
		Texts:          texts,
		InputType:      e.inputType,
		EmbeddingTypes: []string{"float"},
	}

	resp, err := httpclient.DoJSON[embedResponse](ctx, e.client, "POST", "/embed", req)
	if err != nil {
		return nil, err
	}
	return resp.Embeddings.Float, nil
}

// EmbedSingle embeds one text.
func (e *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
