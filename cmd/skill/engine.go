package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lookatitude/skill-engine/agentbridge"
	"github.com/lookatitude/skill-engine/cache"
	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/discovery"
	"github.com/lookatitude/skill-engine/driver/container"
	"github.com/lookatitude/skill-engine/driver/native"
	"github.com/lookatitude/skill-engine/driver/vm"
	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/generator"
	"github.com/lookatitude/skill-engine/rag/embedding"
	"github.com/lookatitude/skill-engine/rag/vectorstore"
	"github.com/lookatitude/skill-engine/search"
	"github.com/lookatitude/skill-engine/skill"

	_ "github.com/lookatitude/skill-engine/rag/embedding/providers/cohere"
	_ "github.com/lookatitude/skill-engine/rag/embedding/providers/inmemory"
	_ "github.com/lookatitude/skill-engine/rag/embedding/providers/openai"
	_ "github.com/lookatitude/skill-engine/rag/vectorstore/providers/inmemory"
	_ "github.com/lookatitude/skill-engine/rag/vectorstore/providers/pgvector"
	_ "github.com/lookatitude/skill-engine/rag/vectorstore/providers/redis"

	_ "github.com/lookatitude/skill-engine/generator/providers/anthropic"
	_ "github.com/lookatitude/skill-engine/generator/providers/bedrock"
	_ "github.com/lookatitude/skill-engine/generator/providers/openai"

	_ "github.com/lookatitude/skill-engine/cache/providers/inmemory"
)

// unavailableDriver reports RuntimeUnavailable for every call. It stands in
// for a runtime driver whose backend (wazero, the Docker daemon) couldn't be
// reached at startup, so a manifest made up entirely of native skills still
// runs instead of failing the whole process over an unrelated runtime.
type unavailableDriver struct{ reason error }

func (d unavailableDriver) Execute(ctx context.Context, handle executor.Handle, toolName string, args []executor.KV) (skill.ExecutionResult, error) {
	return skill.ExecutionResult{}, fmt.Errorf("RuntimeUnavailable: %w", d.reason)
}

// buildExecutor assembles an Executor wired to all three runtime drivers.
// The VM and container drivers are built eagerly; either one failing to
// connect falls back to unavailableDriver rather than aborting, so skills
// targeting the other runtimes keep working.
func buildExecutor() *executor.Executor {
	vmDriver, vmErr := vm.New(context.Background())
	containerDriver, containerErr := container.New("")
	nativeDriver := native.New()

	var vmD executor.Driver = unavailableDriver{reason: vmErr}
	if vmErr == nil {
		vmD = vmDriver
	}
	var containerD executor.Driver = unavailableDriver{reason: containerErr}
	if containerErr == nil {
		containerD = containerDriver
	}

	return executor.New(vmD, containerD, nativeDriver)
}

// buildCache builds a discovery.Cache. It is markdown-only (runtime nil):
// wiring a runtime reporter here would need a (skill, instance) pair per
// lookup that discovery.RuntimeToolSource's (ctx, skillDir)-only signature
// doesn't carry, so runtime-reported tools are left to the MCP
// integration's own ToolSource wiring instead (see agentbridge.Config's
// Executor.WithToolSource path).
func buildCache() *discovery.Cache {
	return discovery.NewCache(nil)
}

// embeddingProvider and vectorStoreProvider name the registered providers
// search pipeline construction uses, overridable by environment so a
// deployment can point at a real embedding service and vector database
// instead of the deterministic in-memory defaults.
func embeddingProvider() string {
	if v := os.Getenv("SKILL_ENGINE_EMBEDDING_PROVIDER"); v != "" {
		return v
	}
	return "inmemory"
}

func vectorStoreProvider() string {
	if v := os.Getenv("SKILL_ENGINE_VECTORSTORE_PROVIDER"); v != "" {
		return v
	}
	return "inmemory"
}

// newPipelineFactory builds the search.Pipeline lazily from environment
// configuration, per agentbridge.Config.NewPipeline's "don't dial a remote
// provider until search_skills is actually called" contract.
func newPipelineFactory() agentbridge.PipelineFactory {
	return func() (*search.Pipeline, error) {
		embedder, err := embedding.New(embeddingProvider(), config.ProviderConfig{
			Provider: embeddingProvider(),
			APIKey:   os.Getenv("SKILL_ENGINE_EMBEDDING_API_KEY"),
			Model:    os.Getenv("SKILL_ENGINE_EMBEDDING_MODEL"),
		})
		if err != nil {
			return nil, fmt.Errorf("build embedder: %w", err)
		}

		store, err := vectorstore.New(vectorStoreProvider(), config.ProviderConfig{
			Provider: vectorStoreProvider(),
			BaseURL:  os.Getenv("SKILL_ENGINE_VECTORSTORE_URL"),
		})
		if err != nil {
			return nil, fmt.Errorf("build vector store: %w", err)
		}

		return search.New(search.Config{Embedder: embedder, Store: store, QueryCache: buildQueryCache()})
	}
}

// buildQueryCache wires an optional semantic result cache in front of
// search.Pipeline.Query, keyed by query embedding. Disabled unless
// SKILL_ENGINE_SEARCH_CACHE=1, since repeated-query caching trades
// memory for latency and shouldn't be on by default for a CLI process
// that typically runs one query per invocation.
func buildQueryCache() *cache.SemanticCache {
	if os.Getenv("SKILL_ENGINE_SEARCH_CACHE") != "1" {
		return nil
	}
	c, err := cache.New("inmemory", cache.Config{})
	if err != nil {
		return nil
	}
	return cache.NewSemanticCache(c, 0.95)
}

// buildGenerator resolves the optional example-generation engine from
// SKILL_ENGINE_GENERATOR_PROVIDER. An unset/empty value leaves
// generate_examples reporting its typed "not available" error, per
// spec.md §4.9.
func buildGenerator() generator.Engine {
	name := os.Getenv("SKILL_ENGINE_GENERATOR_PROVIDER")
	if name == "" {
		return nil
	}
	eng, err := generator.New(name, config.ProviderConfig{
		Provider: name,
		APIKey:   os.Getenv("SKILL_ENGINE_GENERATOR_API_KEY"),
		Model:    os.Getenv("SKILL_ENGINE_GENERATOR_MODEL"),
	})
	if err != nil {
		return nil
	}
	return eng
}
