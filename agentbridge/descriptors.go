package agentbridge

import "github.com/lookatitude/skill-engine/skill"

// parameterDescriptors renders a tool's declared parameters as the plain
// JSON shape both list_skills and search_skills embed in their responses.
func parameterDescriptors(params []skill.Parameter) []map[string]any {
	out := make([]map[string]any, len(params))
	for i, p := range params {
		d := map[string]any{
			"name":     p.Name,
			"type":     string(p.Type),
			"required": p.Required,
		}
		if p.Default != "" {
			d["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			d["enum"] = p.Enum
		}
		out[i] = d
	}
	return out
}
