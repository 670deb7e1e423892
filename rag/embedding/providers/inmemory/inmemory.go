// Package inmemory provides a deterministic, dependency-free Embedder used
// for tests, local development, and the default manifest configuration when
// no remote embedding provider is configured.
package inmemory

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/rag/embedding"
)

const defaultDimensions = 128

// Embedder produces deterministic, L2-normalized vectors derived from a hash
// of the input text. It makes no network calls and needs no credentials.
type Embedder struct {
	dims int
}

// New builds an inmemory Embedder. cfg.Options["dimensions"] (float64)
// overrides the default dimension count; zero or negative falls back to the
// default.
func New(cfg config.ProviderConfig) (*Embedder, error) {
	dims := defaultDimensions
	if v, ok := config.GetOption[float64](cfg, "dimensions"); ok && v > 0 {
		dims = int(v)
	}
	return &Embedder{dims: dims}, nil
}

func init() {
	embedding.Register("inmemory", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

// Dimensions returns the configured vector length.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed embeds each text independently, preserving order.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// EmbedSingle embeds one text.
func (e *Embedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

// vector derives a deterministic unit vector from text by seeding a simple
// hash-based stream per dimension, then L2-normalizing the result.
func (e *Embedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	h := fnv.New64a()
	for i := 0; i < e.dims; i++ {
		h.Reset()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		sum := h.Sum64()
		// Map the hash into [-1, 1].
		vec[i] = float32(int64(sum%2000001)-1000000) / 1000000.0
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
