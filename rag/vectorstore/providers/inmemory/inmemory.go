// Package inmemory provides a dependency-free VectorStore used for tests,
// local development, and small manifests where a remote vector database
// would be overkill.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/rag/vectorstore"
	"github.com/lookatitude/skill-engine/schema"
)

type entry struct {
	doc entryDoc
	vec []float32
}

type entryDoc = schema.Document

// Store is a concurrency-safe, map-backed VectorStore.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New builds an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func init() {
	vectorstore.Register("inmemory", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return New(), nil
	})
}

// Add upserts docs with their embeddings, keyed by document ID.
func (s *Store) Add(_ context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/inmemory: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range docs {
		s.entries[doc.ID] = entry{doc: doc, vec: embeddings[i]}
	}
	return nil
}

// Search ranks stored documents against query using the configured strategy
// and returns up to k matches.
func (s *Store) Search(_ context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{Strategy: vectorstore.Cosine}
	for _, opt := range opts {
		opt(cfg)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   schema.Document
		score float64
	}
	candidates := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		if !matchesFilter(e.doc, cfg.Filter) {
			continue
		}

		var score float64
		switch cfg.Strategy {
		case vectorstore.DotProduct:
			score = dotProduct(query, e.vec)
		case vectorstore.Euclidean:
			score = -euclideanDistance(query, e.vec)
		default:
			score = cosineSimilarity(query, e.vec)
		}

		if cfg.Threshold != 0 && score < cfg.Threshold {
			continue
		}

		doc := e.doc
		doc.Score = score
		candidates = append(candidates, scored{doc: doc, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]schema.Document, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[i].doc
	}
	return out, nil
}

// Delete removes documents by ID. Unknown IDs are ignored.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func euclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func matchesFilter(doc schema.Document, filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	if doc.Metadata == nil {
		return false
	}
	for k, v := range filter {
		mv, ok := doc.Metadata[k]
		if !ok || mv != v {
			return false
		}
	}
	return true
}
