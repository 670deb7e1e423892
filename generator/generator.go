// Package generator drives LLM-backed generation of validated command-form
// examples for a skill's tools, streamed as a closed event sequence so
// generate_examples can append validated examples to the skill's indexed
// documents as they arrive rather than waiting for the whole batch.
package generator

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/skill"
)

// EventKind is the closed set of generate_examples event kinds.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventExample       EventKind = "example"
	EventToolCompleted EventKind = "tool_completed"
	EventCompleted     EventKind = "completed"
	EventError         EventKind = "error"
)

// Example is one validated command-form invocation generated for a tool.
type Example struct {
	Tool    string
	Command string
}

// GenerateEvent is one event in a generate_examples stream. Kind determines
// which other fields are meaningful: Example on EventExample, Tool on
// EventExample/EventToolCompleted, Total on EventCompleted, Err on
// EventError.
type GenerateEvent struct {
	Kind    EventKind
	Tool    string
	Example Example
	Total   int
	Err     error
}

// Request describes one generate_examples call.
type Request struct {
	Skill string
	Tools []skill.Tool
	Count int
}

// Engine generates examples for a Request, streaming events lazily; a
// consumer that stops ranging early (returns false from the Seq2 yield)
// stops the engine from doing further work.
type Engine interface {
	Generate(ctx context.Context, req Request) iter.Seq2[GenerateEvent, error]
}

// Factory builds an Engine from provider configuration.
type Factory func(cfg config.ProviderConfig) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a named generator engine factory to the global registry.
// Safe to call from init. Panics on empty name, nil factory, or duplicate
// name, matching rag/embedding's registry discipline.
func Register(name string, f Factory) {
	if name == "" {
		panic("generator: Register called with empty name")
	}
	if f == nil {
		panic("generator: Register called with nil factory for " + name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := registry[name]; dup {
		panic("generator: Register called twice for " + name)
	}
	registry[name] = f
}

// New creates an Engine by looking up the named factory and invoking it.
func New(name string, cfg config.ProviderConfig) (Engine, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("generator: unknown provider %q", name)
	}
	return f(cfg)
}

// List returns the sorted names of all registered generator engines.
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
