package agentbridge

import (
	"context"
	"fmt"

	"github.com/lookatitude/skill-engine/search"
	"github.com/lookatitude/skill-engine/skill"
	"github.com/lookatitude/skill-engine/tool"
)

// searchSkillsTool implements search_skills: runs the hybrid search
// pipeline and returns, per hit, a relevance bucket plus a ready-to-submit
// execute envelope.
type searchSkillsTool struct {
	bridge *Bridge
}

func (t *searchSkillsTool) Name() string { return "search_skills" }

func (t *searchSkillsTool) Description() string {
	return "Finds tools relevant to a natural-language query across all installed skills."
}

func (t *searchSkillsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Natural-language description of the desired capability."},
			"top_k": map[string]any{"type": "integer", "description": "Maximum results to return. Default 5."},
		},
		"required": []string{"query"},
	}
}

func (t *searchSkillsTool) Execute(ctx context.Context, input map[string]any) (*tool.Result, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("InvalidInput: search_skills requires a non-empty \"query\"")
	}
	topK := intArg(input, "top_k", 5)

	pipeline, err := t.bridge.ensurePipeline(ctx)
	if err != nil {
		return nil, err
	}

	results, err := pipeline.Query(ctx, query, search.QueryOptions{TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("agentbridge: search_skills query: %w", err)
	}

	hits := make([]map[string]any, len(results))
	for i, r := range results {
		hits[i] = searchHit(r)
	}
	return jsonResult(map[string]any{"results": hits})
}

// relevancePercent normalizes a SearchResult's score onto a 0-100 scale: a
// reranker's score (assumed already normalized to [0,1]) wins when present;
// otherwise the dense cosine-similarity score (typically [-1,1] or [0,1]
// depending on provider) is clamped into [0,1] before scaling.
func relevancePercent(r skill.SearchResult) float64 {
	score := r.DenseScore
	if r.RerankScore != nil {
		score = *r.RerankScore
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score * 100
}

// relevanceBucket implements spec.md §4.9's fixed thresholds: excellent
// >=80, good >=60, fair >=40, else partial.
func relevanceBucket(pct float64) string {
	switch {
	case pct >= 80:
		return "excellent"
	case pct >= 60:
		return "good"
	case pct >= 40:
		return "fair"
	default:
		return "partial"
	}
}

func searchHit(r skill.SearchResult) map[string]any {
	pct := relevancePercent(r)
	skillName := metaString(r.Metadata, "skill")
	instance := metaString(r.Metadata, "instance")
	toolName := metaString(r.Metadata, "tool")
	description := metaString(r.Metadata, "description")
	params := metaParameters(r.Metadata)

	return map[string]any{
		"id":          r.ID,
		"skill":       skillName,
		"instance":    instance,
		"tool":        toolName,
		"description": description,
		"parameters":  params,
		"score":       pct,
		"relevance":   relevanceBucket(pct),
		"execute": map[string]any{
			"skill":    skillName,
			"instance": instance,
			"tool":     toolName,
			"args":     map[string]any{},
		},
	}
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

// metaParameters reads the "parameters" metadata field back out, tolerating
// both the in-process []map[string]any shape (inmemory store) and the
// []any-of-map[string]any shape a JSON-roundtripping store (pgvector,
// redis) produces.
func metaParameters(meta map[string]any) []map[string]any {
	raw, ok := meta["parameters"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
