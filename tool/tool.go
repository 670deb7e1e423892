// Package tool defines the interface skills and MCP bridges use to expose
// callable capabilities, independent of how those capabilities are wired up
// (native Go function, remote MCP server, skill-declared command, ...).
package tool

import (
	"context"

	"github.com/lookatitude/skill-engine/schema"
)

// Tool is a single callable capability with a JSON-schema-described input.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, input map[string]any) (*Result, error)
}

// Result is the outcome of executing a Tool. IsError distinguishes a tool
// that ran and reported failure from a Go error returned by Execute itself;
// callers typically surface both the same way to an agent.
type Result struct {
	Content []schema.ContentPart
	IsError bool
}

// TextResult wraps text as a successful single-part Result.
func TextResult(text string) *Result {
	return &Result{Content: []schema.ContentPart{schema.TextPart{Text: text}}}
}

// ErrorResult wraps an error's message as a failed single-part Result.
func ErrorResult(err error) *Result {
	return &Result{
		Content: []schema.ContentPart{schema.TextPart{Text: err.Error()}},
		IsError: true,
	}
}

// Definition is a tool's JSON-serializable descriptor, as sent to a model or
// an MCP client's tools/list response.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToDefinition builds a Definition from a live Tool.
func ToDefinition(t Tool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema(),
	}
}
