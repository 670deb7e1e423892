// Package embedding defines the Embedder abstraction used by the semantic
// discovery pipeline to turn skill documentation into vectors, plus a
// provider registry, hook composition, and middleware wrapping following the
// same pattern used throughout this module (see auth.Register/auth.New).
package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lookatitude/skill-engine/config"
)

// Embedder turns text into dense vectors for semantic search.
type Embedder interface {
	// Embed embeds a batch of texts, returning one vector per input in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle embeds one text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Dimensions returns the length of vectors this embedder produces.
	Dimensions() int
}

// HealthChecker is implemented by embedders that can verify connectivity to
// a remote embedding service. Not every embedder needs one (inmemory has
// nothing to check), so callers type-assert for it rather than requiring it
// on the Embedder interface itself.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Factory builds an Embedder from provider configuration.
type Factory func(cfg config.ProviderConfig) (Embedder, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a named embedder factory to the global registry. Safe to
// call from init. Panics on empty name, nil factory, or duplicate name.
func Register(name string, f Factory) {
	if name == "" {
		panic("embedding: Register called with empty name")
	}
	if f == nil {
		panic("embedding: Register called with nil factory for " + name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic("embedding: Register called twice for " + name)
	}
	registry[name] = f
}

// New creates an Embedder by looking up the named factory and invoking it.
func New(name string, cfg config.ProviderConfig) (Embedder, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("embedding: unknown provider %q", name)
	}
	return f(cfg)
}

// List returns the sorted names of all registered embedder factories.
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

// Hooks are optional callbacks invoked around Embed/EmbedSingle calls.
type Hooks struct {
	BeforeEmbed func(ctx context.Context, texts []string) error
	AfterEmbed  func(ctx context.Context, embeddings [][]float32, err error)
}

// ComposeHooks merges multiple Hooks into one: all BeforeEmbed run in order
// (stopping at the first error), all AfterEmbed run in order.
func ComposeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		BeforeEmbed: func(ctx context.Context, texts []string) error {
			for _, h := range hooks {
				if h.BeforeEmbed == nil {
					continue
				}
				if err := h.BeforeEmbed(ctx, texts); err != nil {
					return err
				}
			}
			return nil
		},
		AfterEmbed: func(ctx context.Context, embeddings [][]float32, err error) {
			for _, h := range hooks {
				if h.AfterEmbed == nil {
					continue
				}
				h.AfterEmbed(ctx, embeddings, err)
			}
		},
	}
}

// Middleware wraps an Embedder to add cross-cutting behavior.
type Middleware func(Embedder) Embedder

// WithHooks returns Middleware that invokes hooks around Embed/EmbedSingle.
func WithHooks(hooks Hooks) Middleware {
	return func(next Embedder) Embedder {
		return &hookedEmbedder{next: next, hooks: hooks}
	}
}

type hookedEmbedder struct {
	next  Embedder
	hooks Hooks
}

func (e *hookedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.hooks.BeforeEmbed != nil {
		if err := e.hooks.BeforeEmbed(ctx, texts); err != nil {
			if e.hooks.AfterEmbed != nil {
				e.hooks.AfterEmbed(ctx, nil, err)
			}
			return nil, err
		}
	}
	vecs, err := e.next.Embed(ctx, texts)
	if e.hooks.AfterEmbed != nil {
		e.hooks.AfterEmbed(ctx, vecs, err)
	}
	return vecs, err
}

func (e *hookedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if e.hooks.BeforeEmbed != nil {
		if err := e.hooks.BeforeEmbed(ctx, []string{text}); err != nil {
			if e.hooks.AfterEmbed != nil {
				e.hooks.AfterEmbed(ctx, nil, err)
			}
			return nil, err
		}
	}
	vec, err := e.next.EmbedSingle(ctx, text)
	if e.hooks.AfterEmbed != nil {
		var vecs [][]float32
		if err == nil {
			vecs = [][]float32{vec}
		}
		e.hooks.AfterEmbed(ctx, vecs, err)
	}
	return vec, err
}

func (e *hookedEmbedder) Dimensions() int { return e.next.Dimensions() }

// ApplyMiddleware wraps base with each middleware in order, so the first
// middleware passed is outermost (runs first).
func ApplyMiddleware(base Embedder, mws ...Middleware) Embedder {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
