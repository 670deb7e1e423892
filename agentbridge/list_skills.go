package agentbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lookatitude/skill-engine/schema"
	"github.com/lookatitude/skill-engine/tool"
)

// listSkillsTool implements list_skills: a deterministic, sorted-by-
// (skill, tool) listing with pagination metadata.
type listSkillsTool struct {
	bridge *Bridge
}

func (t *listSkillsTool) Name() string { return "list_skills" }

func (t *listSkillsTool) Description() string {
	return "Lists installed skills and their tools, optionally filtered to one skill, with pagination."
}

func (t *listSkillsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skill":  map[string]any{"type": "string", "description": "Restrict the listing to one skill name."},
			"offset": map[string]any{"type": "integer", "description": "Pagination offset. Default 0."},
			"limit":  map[string]any{"type": "integer", "description": "Page size. Default 20."},
		},
	}
}

func (t *listSkillsTool) Execute(ctx context.Context, input map[string]any) (*tool.Result, error) {
	skillFilter, _ := input["skill"].(string)
	offset := intArg(input, "offset", 0)
	limit := intArg(input, "limit", 20)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	records, err := t.bridge.allToolRecords(ctx, skillFilter)
	if err != nil {
		return nil, err
	}

	total := len(records)
	end := offset + limit
	if end > total {
		end = total
	}
	var page []map[string]any
	if offset < total {
		for _, r := range records[offset:end] {
			page = append(page, map[string]any{
				"skill":       r.SkillName,
				"instance":    r.Instance,
				"tool":        r.Name,
				"description": r.Description,
				"parameters":  parameterDescriptors(r.Parameters),
			})
		}
	}

	payload := map[string]any{
		"skills":   page,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
		"returned": len(page),
		"has_more": end < total,
	}
	return jsonResult(payload)
}

// intArg reads an integer-valued field out of a decoded-JSON input map,
// tolerating both float64 (the typical json.Unmarshal-into-any shape) and
// int (direct Go-side construction, e.g. from tests).
func intArg(input map[string]any, key string, def int) int {
	switch v := input[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func jsonResult(payload map[string]any) (*tool.Result, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("agentbridge: encode result: %w", err)
	}
	return &tool.Result{Content: []schema.ContentPart{schema.TextPart{Text: string(raw)}}}, nil
}
