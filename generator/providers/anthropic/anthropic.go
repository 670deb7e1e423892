// Package anthropic implements generator.Engine over the anthropic-sdk-go
// Messages API, following the same client-construction and streaming shape
// as the teacher's llm/providers/anthropic chat model.
package anthropic

import (
	"context"
	"fmt"
	"iter"

	anthropicSDK "github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/generator"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4096
)

func init() {
	generator.Register("anthropic", func(cfg config.ProviderConfig) (generator.Engine, error) {
		return New(cfg)
	})
}

// Engine generates tool examples via the Anthropic Messages API.
type Engine struct {
	client anthropicSDK.Client
	model  string
}

// New builds an Engine.
func New(cfg config.ProviderConfig) (*Engine, error) {
	opts := []anthropicOption.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, anthropicOption.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropicOption.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Engine{
		client: anthropicSDK.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate streams a GenerateEvent sequence, matching the contract shared
// with the openai engine: Started, per-tool Example/ToolCompleted, final
// Completed carrying the total examples produced.
func (e *Engine) Generate(ctx context.Context, req generator.Request) iter.Seq2[generator.GenerateEvent, error] {
	return func(yield func(generator.GenerateEvent, error) bool) {
		if !yield(generator.GenerateEvent{Kind: generator.EventStarted}, nil) {
			return
		}

		total := 0
		for _, tool := range req.Tools {
			text, err := e.streamMessage(ctx, generator.BuildPrompt(tool, req.Count))
			if err != nil {
				yield(generator.GenerateEvent{Kind: generator.EventError, Tool: tool.Name, Err: err}, err)
				return
			}

			for _, cmd := range generator.SplitExamples(text) {
				if err := generator.ValidateCommand(tool, cmd); err != nil {
					continue
				}
				total++
				ev := generator.GenerateEvent{
					Kind:    generator.EventExample,
					Tool:    tool.Name,
					Example: generator.Example{Tool: tool.Name, Command: cmd},
				}
				if !yield(ev, nil) {
					return
				}
			}

			if !yield(generator.GenerateEvent{Kind: generator.EventToolCompleted, Tool: tool.Name}, nil) {
				return
			}
		}

		yield(generator.GenerateEvent{Kind: generator.EventCompleted, Total: total}, nil)
	}
}

func (e *Engine) streamMessage(ctx context.Context, prompt string) (string, error) {
	params := anthropicSDK.MessageNewParams{
		Model:     anthropicSDK.Model(e.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropicSDK.MessageParam{
			anthropicSDK.NewUserMessage(anthropicSDK.NewTextBlock(prompt)),
		},
	}

	stream := e.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var text string
	for stream.Next() {
		event := stream.Current()
		if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" {
			text += event.Delta.Text
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("generator: anthropic stream error: %w", err)
	}
	return text, nil
}
