// Package openai implements generator.Engine over the sashabaranov/go-openai
// chat completions API, streaming deltas the same way the teacher's
// llms/openai chat model streams AIMessageChunks.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	openaiSDK "github.com/sashabaranov/go-openai"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/generator"
)

const defaultModel = openaiSDK.GPT4oMini

func init() {
	generator.Register("openai", func(cfg config.ProviderConfig) (generator.Engine, error) {
		return New(cfg)
	})
}

// Engine generates tool examples via OpenAI chat completions.
type Engine struct {
	client *openaiSDK.Client
	model  string
}

// New builds an Engine. cfg.BaseURL overrides the API base for
// OpenAI-compatible endpoints.
func New(cfg config.ProviderConfig) (*Engine, error) {
	clientCfg := openaiSDK.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Engine{
		client: openaiSDK.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Generate streams a GenerateEvent sequence: Started, then per tool a
// stream of validated Example events followed by ToolCompleted, then a
// final Completed carrying the total examples produced.
func (e *Engine) Generate(ctx context.Context, req generator.Request) iter.Seq2[generator.GenerateEvent, error] {
	return func(yield func(generator.GenerateEvent, error) bool) {
		if !yield(generator.GenerateEvent{Kind: generator.EventStarted}, nil) {
			return
		}

		total := 0
		for _, tool := range req.Tools {
			text, err := e.streamCompletion(ctx, generator.BuildPrompt(tool, req.Count))
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

func (e *Engine) streamCompletion(ctx context.Context, prompt string) (string, error) {
	stream, err := e.client.CreateChatCompletionStream(ctx, openaiSDK.ChatCompletionRequest{
		Model: e.model,
		Messages: []openaiSDK.ChatCompletionMessage{
			{Role: openaiSDK.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("generator: openai stream creation failed: %w", err)
	}
	defer stream.Close()

	var text string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return text, nil
		}
		if err != nil {
			return "", fmt.Errorf("generator: openai stream error: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		text += resp.Choices[0].Delta.Content
	}
}
