package agentbridge

import (
	"context"
	"fmt"
	"sort"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/schema"
	"github.com/lookatitude/skill-engine/shaping"
	"github.com/lookatitude/skill-engine/skill"
	"github.com/lookatitude/skill-engine/tool"
)

// executeTool implements execute: load the named skill instance, dispatch
// the tool call through the Executor, then run the result through the
// context-engineering output shaper before returning it.
type executeTool struct {
	bridge *Bridge
}

func (t *executeTool) Name() string { return "execute" }

func (t *executeTool) Description() string {
	return "Runs one tool of an installed skill and returns its (optionally reshaped) output."
}

func (t *executeTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skill":           map[string]any{"type": "string"},
			"tool":            map[string]any{"type": "string"},
			"instance":        map[string]any{"type": "string", "description": "Instance name. Defaults to the skill's default instance."},
			"args":            map[string]any{"type": "object", "description": "Named arguments for the tool."},
			"grep":            map[string]any{"type": "string", "description": "Regex: retain (or reject) matching output lines."},
			"grep_invert":     map[string]any{"type": "boolean"},
			"head":            map[string]any{"type": "integer"},
			"tail":            map[string]any{"type": "integer"},
			"jq":              map[string]any{"type": "string", "description": "Dot-path extraction: a.b, a.b[], a.b[0], a.b[1:3]."},
			"format":          map[string]any{"type": "string", "enum": []string{"json", "lines", "count", "compact"}},
			"max_output":      map[string]any{"type": "integer"},
			"truncate":        map[string]any{"type": "string", "enum": []string{"head", "tail", "middle", "smart"}},
			"include_metadata": map[string]any{"type": "boolean"},
		},
		"required": []string{"skill", "tool"},
	}
}

func (t *executeTool) Execute(ctx context.Context, input map[string]any) (*tool.Result, error) {
	skillName, _ := input["skill"].(string)
	toolName, _ := input["tool"].(string)
	instanceName, _ := input["instance"].(string)
	if skillName == "" || toolName == "" {
		return nil, fmt.Errorf("InvalidInput: execute requires \"skill\" and \"tool\"")
	}
	argsRaw, _ := input["args"].(map[string]any)

	resolved, err := t.bridge.currentManifest().Resolve(skillName, instanceName)
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
	toolDef, ok := findTool(tools, toolName)
	if !ok {
		return nil, fmt.Errorf("NotFound: tool %q is not declared by skill %q", toolName, skillName)
	}

	kv := argsToKV(toolDef, argsRaw)
	result, err := t.bridge.exec.ExecuteTool(ctx, handle, toolName, kv)
	if err != nil {
		return nil, err
	}

	shaped, err := shaping.Shape(result.Output, parseShapeOptions(input))
	if err != nil {
		return nil, err
	}

	text := shaped.Output
	if !result.Success && result.Error != "" {
		if text != "" {
			text += "\n"
		}
		text += result.Error
	}

	return &tool.Result{
		Content: []schema.ContentPart{schema.TextPart{Text: text}},
		IsError: !result.Success,
	}, nil
}

func findTool(tools []skill.Tool, name string) (skill.Tool, bool) {
	for _, td := range tools {
		if td.Name == name {
			return td, true
		}
	}
	return skill.Tool{}, false
}

// argsToKV orders named arguments by the tool's declared parameter order
// (so positional-sensitive native commands build deterministically), then
// appends any undeclared keys in sorted order so extra arguments aren't
// silently dropped.
func argsToKV(toolDef skill.Tool, args map[string]any) []executor.KV {
	if args == nil {
		return nil
	}
	used := make(map[string]bool, len(args))
	var kv []executor.KV

	for _, p := range toolDef.Parameters {
		v, ok := args[p.Name]
		if !ok {
			continue
		}
		used[p.Name] = true
		kv = append(kv, executor.KV{Key: p.Name, Value: fmt.Sprint(v)})
	}

	var extra []string
	for k := range args {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		kv = append(kv, executor.KV{Key: k, Value: fmt.Sprint(args[k])})
	}
	return kv
}

// parseShapeOptions reads the context-engineering option fields sitting
// alongside skill/tool/instance/args in the execute input, per spec.md
// §4.9's fixed option set.
func parseShapeOptions(input map[string]any) shaping.Options {
	opts := shaping.Options{
		Grep:            stringArg(input, "grep"),
		GrepInvert:      boolArg(input, "grep_invert"),
		Head:            intArg(input, "head", 0),
		Tail:            intArg(input, "tail", 0),
		JQ:              stringArg(input, "jq"),
		Format:          shaping.Format(stringArg(input, "format")),
		MaxOutput:       intArg(input, "max_output", 0),
		Truncate:        shaping.TruncateStrategy(stringArg(input, "truncate")),
		IncludeMetadata: boolArg(input, "include_metadata"),
	}
	return opts
}

func stringArg(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}

func boolArg(input map[string]any, key string) bool {
	b, _ := input[key].(bool)
	return b
}
