package mcp

import (
	"context"
	"fmt"

	"github.com/lookatitude/skill-engine/schema"
	"github.com/lookatitude/skill-engine/tool"
)

// FromMCP connects to the MCP server at baseURL and wraps each of its
// advertised tools as a local tool.Tool, so it can be registered into a
// skill's own tool set like any native tool.
func FromMCP(ctx context.Context, baseURL string) ([]tool.Tool, error) {
	client := NewClient(baseURL)

	if _, err := client.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("mcp: initialize %s: %w", baseURL, err)
	}

	defs, err := client.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools %s: %w", baseURL, err)
	}

	tools := make([]tool.Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, &mcpTool{client: client, def: def})
	}
	return tools, nil
}

// mcpTool adapts a remote MCP tool definition to the local tool.Tool
// interface, dispatching Execute as a tools/call round trip.
type mcpTool struct {
	client *Client
	def    tool.Definition
}

func (t *mcpTool) Name() string              { return t.def.Name }
func (t *mcpTool) Description() string       { return t.def.Description }
func (t *mcpTool) InputSchema() map[string]any { return t.def.InputSchema }

func (t *mcpTool) Execute(ctx context.Context, input map[string]any) (*tool.Result, error) {
	result, err := t.client.CallTool(ctx, t.def.Name, input)
	if err != nil {
		return nil, err
	}

	parts := make([]schema.ContentPart, 0, len(result.Content))
	for _, c := range result.Content {
		parts = append(parts, schema.TextPart{Text: c.Text})
	}
	return &tool.Result{Content: parts, IsError: result.IsError}, nil
}
