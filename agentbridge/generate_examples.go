package agentbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lookatitude/skill-engine/generator"
	"github.com/lookatitude/skill-engine/schema"
	"github.com/lookatitude/skill-engine/skill"
	"github.com/lookatitude/skill-engine/tool"
)

// generateExamplesTool implements generate_examples: it streams a
// generator.Engine's GenerateEvent sequence, surfacing each event as one
// content part (tool.Tool.Execute is request/response, not itself
// streaming, so the stream is flattened into an ordered list of parts
// rather than dropped), and appends the validated examples produced on
// Completed to the skill's indexed documents.
type generateExamplesTool struct {
	bridge *Bridge
}

func (t *generateExamplesTool) Name() string { return "generate_examples" }

func (t *generateExamplesTool) Description() string {
	return "Generates validated command-form examples for a skill's tool(s) via a configured LLM provider."
}

func (t *generateExamplesTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skill": map[string]any{"type": "string"},
			"tool":  map[string]any{"type": "string", "description": "Restrict generation to one tool. Defaults to all of the skill's tools."},
			"count": map[string]any{"type": "integer", "description": "Examples per tool. Default 5."},
		},
		"required": []string{"skill"},
	}
}

func (t *generateExamplesTool) Execute(ctx context.Context, input map[string]any) (*tool.Result, error) {
	if t.bridge.generator == nil {
		return nil, fmt.Errorf("NotAvailable: no generate_examples provider is configured")
	}

	skillName, _ := input["skill"].(string)
	if skillName == "" {
		return nil, fmt.Errorf("InvalidInput: generate_examples requires \"skill\"")
	}
	toolFilter, _ := input["tool"].(string)
	count := intArg(input, "count", 5)

	resolved, err := t.bridge.currentManifest().Resolve(skillName, "")
	if err != nil {
		return nil, err
	}
	handle, err := t.bridge.exec.Load(resolved)
	if err != nil {
		return nil, err
	}
	tools, err := t.bridge.exec.GetTools(ctx, handle)
	if err != nil {
		return nil, err
	}
	if toolFilter != "" {
		td, ok := findTool(tools, toolFilter)
		if !ok {
			return nil, fmt.Errorf("NotFound: tool %q is not declared by skill %q", toolFilter, skillName)
		}
		tools = []skill.Tool{td}
	}

	req := generator.Request{Skill: skillName, Tools: tools, Count: count}

	var parts []schema.ContentPart
	var generated []skill.IndexDocument
	for ev, genErr := range t.bridge.generator.Generate(ctx, req) {
		if genErr != nil {
			return nil, fmt.Errorf("agentbridge: generate_examples: %w", genErr)
		}

		raw, _ := json.Marshal(eventPayload(ev))
		parts = append(parts, schema.TextPart{Text: string(raw)})

		if ev.Kind == generator.EventExample {
			generated = append(generated, exampleDocument(skillName, resolved.InstanceName, ev.Example, len(generated)))
		}
	}

	if len(generated) > 0 {
		pipeline, err := t.bridge.ensurePipeline(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := pipeline.Index(ctx, generated); err != nil {
			return nil, fmt.Errorf("agentbridge: index generated examples: %w", err)
		}
	}

	return &tool.Result{Content: parts}, nil
}

func eventPayload(ev generator.GenerateEvent) map[string]any {
	payload := map[string]any{"kind": string(ev.Kind)}
	if ev.Tool != "" {
		payload["tool"] = ev.Tool
	}
	if ev.Kind == generator.EventExample {
		payload["example"] = map[string]any{"tool": ev.Example.Tool, "command": ev.Example.Command}
	}
	if ev.Kind == generator.EventCompleted {
		payload["total"] = ev.Total
	}
	if ev.Err != nil {
		payload["error"] = ev.Err.Error()
	}
	return payload
}

func exampleDocument(skillName, instanceName string, ex generator.Example, idx int) skill.IndexDocument {
	return skill.IndexDocument{
		ID:      fmt.Sprintf("%s#example-%d", skill.DocID(skillName, instanceName, ex.Tool), idx),
		Content: ex.Command,
		Metadata: map[string]any{
			"skill":     skillName,
			"instance":  instanceName,
			"tool":      ex.Tool,
			"command":   ex.Command,
			"generated": true,
		},
	}
}
