package generator

import (
	"fmt"
	"strings"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/skill"
)

// ValidateCommand checks that command, parsed the same way the CLI/MCP
// layer parses tool invocations (executor.ParseArgs), supplies every
// required parameter tool declares. It does not execute the command --
// only structurally validates the generated example.
func ValidateCommand(tool skill.Tool, command string) error {
	tokens := strings.Fields(command)
	kvs := executor.ParseArgs(tokens)

	seen := make(map[string]bool, len(kvs))
	for _, kv := range kvs {
		seen[kv.Key] = true
	}

	for _, p := range tool.Parameters {
		if p.Required && !seen[p.Name] {
			return fmt.Errorf("generator: example %q missing required parameter %q", command, p.Name)
		}
	}
	return nil
}

// BuildPrompt renders the instruction sent to a generation engine for one
// tool: its name, description, and parameter grammar, asking for count
// newline-separated command-form examples.
func BuildPrompt(tool skill.Tool, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d example command-line invocations of the tool %q.\n", count, tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", tool.Description)
	}
	if len(tool.Parameters) > 0 {
		b.WriteString("Parameters:\n")
		for _, p := range tool.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "- %s (%s) %s\n", p.Name, req, p.Type)
		}
	}
	b.WriteString("Reply with exactly one example per line, in the form `--name value --name2 value2`, no numbering, no commentary.")
	return b.String()
}

// SplitExamples splits a generated text blob into candidate command lines,
// dropping blank lines.
func SplitExamples(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
