package agentbridge

import (
	"context"
	"fmt"

	"github.com/lookatitude/skill-engine/generator"
	"github.com/lookatitude/skill-engine/skill"
)

// GenerateExamplesRequest describes one streamed generate_examples call.
type GenerateExamplesRequest struct {
	Skill string
	Tool  string // optional: restrict to one tool
	Count int    // examples per tool; 0 means generateExamplesTool's default of 5
}

// StreamGenerateExamples runs the same generate_examples flow as the MCP
// tool, but invokes onEvent for each generator.GenerateEvent as it is
// produced instead of collecting them into a single tool.Result. It is
// the entry point for transports that can push events as they happen
// (a websocket connection) rather than only a synchronous request/response.
//
// Like the MCP tool, validated examples are indexed into the search
// pipeline once generation completes.
func (b *Bridge) StreamGenerateExamples(ctx context.Context, req GenerateExamplesRequest, onEvent func(generator.GenerateEvent) error) error {
	if b.generator == nil {
		return fmt.Errorf("NotAvailable: no generate_examples provider is configured")
	}
	if req.Skill == "" {
		return fmt.Errorf("InvalidInput: generate_examples requires \"skill\"")
	}
	count := req.Count
	if count <= 0 {
		count = 5
	}

	resolved, err := b.currentManifest().Resolve(req.Skill, "")
	if err != nil {
		return err
	}
	handle, err := b.exec.Load(resolved)
	if err != nil {
		return err
	}
	tools, err := b.exec.GetTools(ctx, handle)
	if err != nil {
		return err
	}
	if req.Tool != "" {
		td, ok := findTool(tools, req.Tool)
		if !ok {
			return fmt.Errorf("NotFound: tool %q is not declared by skill %q", req.Tool, req.Skill)
		}
		tools = []skill.Tool{td}
	}

	genReq := generator.Request{Skill: req.Skill, Tools: tools, Count: count}

	var generated []skill.IndexDocument
	for ev, genErr := range b.generator.Generate(ctx, genReq) {
		if genErr != nil {
			return fmt.Errorf("agentbridge: generate_examples: %w", genErr)
		}
		if ev.Kind == generator.EventExample {
			generated = append(generated, exampleDocument(req.Skill, resolved.InstanceName, ev.Example, len(generated)))
		}
		if err := onEvent(ev); err != nil {
			return err
		}
	}

	if len(generated) > 0 {
		pipeline, err := b.ensurePipeline(ctx)
		if err != nil {
			return err
		}
		if _, err := pipeline.Index(ctx, generated); err != nil {
			return fmt.Errorf("agentbridge: index generated examples: %w", err)
		}
	}
	return nil
}
