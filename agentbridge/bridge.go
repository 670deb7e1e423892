// Package agentbridge wires the skill-engine domain -- manifest, discovery,
// the executor, the hybrid search pipeline, and the example generator --
// onto an MCP server as the four operations spec.md §4.9 names:
// list_skills, search_skills, execute, and generate_examples.
package agentbridge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lookatitude/skill-engine/discovery"
	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/generator"
	"github.com/lookatitude/skill-engine/manifest"
	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/search"
	"github.com/lookatitude/skill-engine/skill"
)

// PipelineFactory builds the search pipeline on first use. It is a factory
// rather than a ready-built *search.Pipeline so that embedder/vector-store
// construction (which may dial a remote provider) only happens if an agent
// actually calls search_skills, per spec.md §4.9's "initialized lazily" rule.
type PipelineFactory func() (*search.Pipeline, error)

// Config builds a Bridge.
type Config struct {
	Manifest *manifest.Manifest
	Cache    *discovery.Cache
	Executor *executor.Executor

	// NewPipeline is required: search_skills has no meaning without it.
	NewPipeline PipelineFactory

	// Generator is optional. A nil Generator makes generate_examples
	// return a typed "not available" error, per spec.md §4.9.
	Generator generator.Engine
}

// Bridge holds the wiring Config describes plus the lazily-built search
// pipeline and its one-time tool-document index.
type Bridge struct {
	cache       *discovery.Cache
	exec        *executor.Executor
	newPipeline PipelineFactory
	generator   generator.Engine
	logger      *o11y.Logger

	manifestMu sync.RWMutex
	manifest   *manifest.Manifest

	mu       sync.Mutex
	pipeline *search.Pipeline
	indexed  bool
}

// New builds a Bridge. Manifest, Cache, Executor, and NewPipeline are
// required; Generator may be nil.
func New(cfg Config) (*Bridge, error) {
	if cfg.Manifest == nil || cfg.Cache == nil || cfg.Executor == nil || cfg.NewPipeline == nil {
		return nil, fmt.Errorf("agentbridge: Manifest, Cache, Executor, and NewPipeline are required")
	}
	return &Bridge{
		manifest:    cfg.Manifest,
		cache:       cfg.Cache,
		exec:        cfg.Executor,
		newPipeline: cfg.NewPipeline,
		generator:   cfg.Generator,
		logger:      o11y.NewLogger(),
	}, nil
}

// instanceNames returns the instance names to enumerate for a skill
// definition: its declared instances, or just its resolved default if it
// declares none.
func instanceNames(def skill.SkillDefinition) []string {
	if len(def.Instances) == 0 {
		return []string{""}
	}
	names := make([]string, 0, len(def.Instances))
	for name := range def.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// currentManifest returns the live manifest under a read lock, so a
// ReloadManifest call racing with an in-flight request always sees either
// the old or the new manifest in full, never a half-swapped one.
func (b *Bridge) currentManifest() *manifest.Manifest {
	b.manifestMu.RLock()
	defer b.manifestMu.RUnlock()
	return b.manifest
}

// ReloadManifest atomically swaps the manifest a running Bridge resolves
// against. Used by cmd/skill serve's manifest file watcher so a
// long-running process picks up edits to .skill-engine.toml without a
// restart; callers should follow a ReloadManifest with Reindex to refresh
// the search index against the new skill set.
func (b *Bridge) ReloadManifest(m *manifest.Manifest) {
	b.manifestMu.Lock()
	defer b.manifestMu.Unlock()
	b.manifest = m
}

// allToolRecords enumerates every tool, across every skill and instance in
// the manifest (optionally filtered to one skill name), sorted by
// (skill, tool) for deterministic pagination.
func (b *Bridge) allToolRecords(ctx context.Context, skillFilter string) ([]skill.ToolRecord, error) {
	m := b.currentManifest()
	names := make([]string, 0, len(m.Skills))
	for name := range m.Skills {
		if skillFilter != "" && name != skillFilter {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var all []skill.ToolRecord
	for _, name := range names {
		def := m.Skills[name]
		for _, instName := range instanceNames(def) {
			resolved, err := m.Resolve(name, instName)
			if err != nil {
				return nil, fmt.Errorf("agentbridge: resolve %s@%s: %w", name, instName, err)
			}
			records, err := b.cache.ToolRecords(ctx, name, resolved.InstanceName, resolved.Source)
			if err != nil {
				return nil, fmt.Errorf("agentbridge: tool records for %s@%s: %w", name, resolved.InstanceName, err)
			}
			all = append(all, records...)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].SkillName != all[j].SkillName {
			return all[i].SkillName < all[j].SkillName
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

// ensurePipeline builds the search pipeline on first call and indexes the
// current tool inventory into it, per spec.md §4.9's lazy-init rule. Later
// calls reuse the same pipeline and do not re-index.
func (b *Bridge) ensurePipeline(ctx context.Context) (*search.Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pipeline != nil {
		return b.pipeline, nil
	}

	p, err := b.newPipeline()
	if err != nil {
		return nil, fmt.Errorf("agentbridge: build search pipeline: %w", err)
	}
	b.pipeline = p

	if !b.indexed {
		records, err := b.allToolRecords(ctx, "")
		if err != nil {
			return nil, err
		}
		docs := make([]skill.IndexDocument, len(records))
		for i, r := range records {
			docs[i] = toolRecordDocument(r)
		}
		if _, err := p.Index(ctx, docs); err != nil {
			return nil, fmt.Errorf("agentbridge: index tool inventory: %w", err)
		}
		b.indexed = true
	}

	return b.pipeline, nil
}

// Reindex rebuilds the search pipeline's document index from the current
// tool inventory. discovery.Cache entries are revalidated against disk as
// part of allToolRecords, so a Reindex call picks up both manifest-level
// changes (a skill added/removed since startup) and on-disk SKILL.md/wasm
// changes in one pass. Safe to call concurrently with search_skills; it
// takes the same lock ensurePipeline uses.
func (b *Bridge) Reindex(ctx context.Context) error {
	b.mu.Lock()
	pipeline := b.pipeline
	b.mu.Unlock()
	if pipeline == nil {
		// Nothing has called search_skills yet; there's no pipeline to
		// refresh, and the first call will index from scratch anyway.
		return nil
	}

	records, err := b.allToolRecords(ctx, "")
	if err != nil {
		return fmt.Errorf("agentbridge: reindex: %w", err)
	}
	docs := make([]skill.IndexDocument, len(records))
	for i, r := range records {
		docs[i] = toolRecordDocument(r)
	}
	if _, err := pipeline.Index(ctx, docs); err != nil {
		return fmt.Errorf("agentbridge: reindex: %w", err)
	}
	return nil
}

// WatchDirs returns the resolved, deduplicated source directory of every
// skill instance in the manifest, for a caller that wants to watch the
// filesystem for changes (e.g. discovery.Watcher) and trigger Reindex
// proactively instead of waiting for the next poll or cron tick.
func (b *Bridge) WatchDirs() []string {
	m := b.currentManifest()
	seen := make(map[string]bool)
	var dirs []string
	for name, def := range m.Skills {
		for _, instName := range instanceNames(def) {
			resolved, err := m.Resolve(name, instName)
			if err != nil {
				continue
			}
			if resolved.Source == "" || seen[resolved.Source] {
				continue
			}
			seen[resolved.Source] = true
			dirs = append(dirs, resolved.Source)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// toolRecordDocument renders a ToolRecord as the search pipeline's indexed
// unit: content is what gets embedded/BM25-indexed, metadata carries
// everything search_skills needs to build a ready-to-submit execute
// envelope without re-parsing the document id.
func toolRecordDocument(r skill.ToolRecord) skill.IndexDocument {
	params := make([]map[string]any, len(r.Parameters))
	for i, p := range r.Parameters {
		params[i] = map[string]any{
			"name":     p.Name,
			"type":     string(p.Type),
			"required": p.Required,
		}
	}
	return skill.IndexDocument{
		ID:      skill.DocID(r.SkillName, r.Instance, r.Name),
		Content: r.Name + " " + r.Description,
		Metadata: map[string]any{
			"skill":       r.SkillName,
			"instance":    r.Instance,
			"tool":        r.Name,
			"description": r.Description,
			"parameters":  params,
		},
	}
}
