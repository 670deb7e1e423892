package agentbridge

import "github.com/lookatitude/skill-engine/protocol/mcp"

// Register builds a Bridge from cfg and registers its four MCP tools
// (list_skills, search_skills, execute, generate_examples) onto srv.
// generate_examples is always registered -- calling it without a
// configured generator.Engine is what produces the typed "not available"
// error spec.md §4.9 describes, rather than the tool being absent from
// tools/list.
func Register(srv *mcp.MCPServer, cfg Config) (*Bridge, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}

	srv.AddTool(&listSkillsTool{bridge: b}).
		AddTool(&searchSkillsTool{bridge: b}).
		AddTool(&executeTool{bridge: b}).
		AddTool(&generateExamplesTool{bridge: b})

	return b, nil
}
