// Package vectorstore defines the VectorStore abstraction used to persist
// and search embedded documents for the semantic discovery pipeline, plus a
// provider registry, hook composition, and middleware wrapping mirroring
// rag/embedding.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/schema"
)

// SearchStrategy selects the similarity function a VectorStore search uses.
type SearchStrategy int

const (
	Cosine SearchStrategy = iota
	DotProduct
	Euclidean
)

// String returns the strategy's TOML/config name.
func (s SearchStrategy) String() string {
	switch s {
	case Cosine:
		return "cosine"
	case DotProduct:
		return "dot_product"
	case Euclidean:
		return "euclidean"
	default:
		return "unknown"
	}
}

// SearchConfig carries the options for one Search call.
type SearchConfig struct {
	Filter    map[string]any
	Threshold float64
	Strategy  SearchStrategy
}

// SearchOption mutates a SearchConfig.
type SearchOption func(*SearchConfig)

// WithFilter restricts search results to documents whose metadata matches
// every key/value pair in filter.
func WithFilter(filter map[string]any) SearchOption {
	return func(c *SearchConfig) { c.Filter = filter }
}

// WithThreshold drops results whose score is below threshold.
func WithThreshold(threshold float64) SearchOption {
	return func(c *SearchConfig) { c.Threshold = threshold }
}

// WithStrategy selects the similarity function used to score candidates.
func WithStrategy(strategy SearchStrategy) SearchOption {
	return func(c *SearchConfig) { c.Strategy = strategy }
}

// VectorStore persists embedded documents and serves nearest-neighbor
// search over them.
type VectorStore interface {
	// Add upserts docs with their corresponding embeddings. len(docs) must
	// equal len(embeddings).
	Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error
	// Search returns up to k documents ranked by similarity to query.
	Search(ctx context.Context, query []float32, k int, opts ...SearchOption) ([]schema.Document, error)
	// Delete removes documents by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error
}

// Factory builds a VectorStore from provider configuration.
type Factory func(cfg config.ProviderConfig) (VectorStore, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a named vector store factory to the global registry. Safe
// to call from init. Panics on empty name, nil factory, or duplicate name.
func Register(name string, f Factory) {
	if name == "" {
		panic("vectorstore: Register called with empty name")
	}
	if f == nil {
		panic("vectorstore: Register called with nil factory for " + name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic("vectorstore: Register called twice for " + name)
	}
	registry[name] = f
}

// New creates a VectorStore by looking up the named factory and invoking it.
func New(name string, cfg config.ProviderConfig) (VectorStore, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("vectorstore: unknown provider %q", name)
	}
	return f(cfg)
}

// List returns the sorted names of all registered vector store factories.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hooks are optional callbacks invoked around Add/Search/Delete calls.
type Hooks struct {
	BeforeAdd    func(ctx context.Context, docs []schema.Document) error
	AfterSearch  func(ctx context.Context, results []schema.Document, err error)
	BeforeDelete func(ctx context.Context, ids []string) error
}

// ComposeHooks merges multiple Hooks into one: all Before* hooks run in
// order (stopping at the first error), all After* hooks run in order.
func ComposeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		BeforeAdd: func(ctx context.Context, docs []schema.Document) error {
			for _, h := range hooks {
				if h.BeforeAdd == nil {
					continue
				}
				if err := h.BeforeAdd(ctx, docs); err != nil {
					return err
				}
			}
			return nil
		},
		AfterSearch: func(ctx context.Context, results []schema.Document, err error) {
			for _, h := range hooks {
				if h.AfterSearch == nil {
					continue
				}
				h.AfterSearch(ctx, results, err)
			}
		},
		BeforeDelete: func(ctx context.Context, ids []string) error {
			for _, h := range hooks {
				if h.BeforeDelete == nil {
					continue
				}
				if err := h.BeforeDelete(ctx, ids); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// Middleware wraps a VectorStore to add cross-cutting behavior.
type Middleware func(VectorStore) VectorStore

// WithHooks returns Middleware that invokes hooks around Add/Search/Delete.
func WithHooks(hooks Hooks) Middleware {
	return func(next VectorStore) VectorStore {
		return &hookedStore{next: next, hooks: hooks}
	}
}

type hookedStore struct {
	next  VectorStore
	hooks Hooks
}

func (s *hookedStore) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if s.hooks.BeforeAdd != nil {
		if err := s.hooks.BeforeAdd(ctx, docs); err != nil {
			return err
		}
	}
	return s.next.Add(ctx, docs, embeddings)
}

func (s *hookedStore) Search(ctx context.Context, query []float32, k int, opts ...SearchOption) ([]schema.Document, error) {
	results, err := s.next.Search(ctx, query, k, opts...)
	if s.hooks.AfterSearch != nil {
		s.hooks.AfterSearch(ctx, results, err)
	}
	return results, err
}

func (s *hookedStore) Delete(ctx context.Context, ids []string) error {
	if s.hooks.BeforeDelete != nil {
		if err := s.hooks.BeforeDelete(ctx, ids); err != nil {
			return err
		}
	}
	return s.next.Delete(ctx, ids)
}

// ApplyMiddleware wraps base with each middleware in order, so the first
// middleware passed is outermost (runs first).
func ApplyMiddleware(base VectorStore, mws ...Middleware) VectorStore {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
