// Package bedrock implements generator.Engine over the AWS Bedrock Converse
// API, following the same client-construction shape as the teacher's
// llm/providers/bedrock chat model: region/credentials resolved through
// aws-sdk-go-v2/config, with a narrow ConverseAPI interface so tests can
// inject a fake client instead of calling AWS.
package bedrock

import (
	"context"
	"fmt"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/lookatitude/skill-engine/config"
	"github.com/lookatitude/skill-engine/generator"
)

const defaultModelID = "anthropic.claude-3-5-sonnet-20240620-v1:0"

func init() {
	generator.Register("bedrock", func(cfg config.ProviderConfig) (generator.Engine, error) {
		return New(cfg)
	})
}

// ConverseAPI is the subset of bedrockruntime.Client the engine needs,
// narrow enough to fake in tests without standing up a real AWS client.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Engine generates tool examples via the AWS Bedrock Converse API.
type Engine struct {
	client  ConverseAPI
	modelID string
}

// New builds an Engine, resolving AWS region/credentials the way the
// teacher's bedrock chat model does: cfg.Options["region"] (default
// us-east-1), and static credentials from cfg.APIKey/cfg.Options["secret_key"]
// when APIKey is set, otherwise the default AWS credential chain.
func New(cfg config.ProviderConfig) (*Engine, error) {
	region, _ := config.GetOption[string](cfg, "region")
	if region == "" {
		region = "us-east-1"
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.APIKey != "" {
		secretKey, _ := config.GetOption[string](cfg, "secret_key")
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.APIKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("generator: bedrock: load AWS config: %w", err)
	}

	var brOpts []func(*bedrockruntime.Options)
	if cfg.BaseURL != "" {
		brOpts = append(brOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.BaseURL)
		})
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = defaultModelID
	}

	return &Engine{
		client:  bedrockruntime.NewFromConfig(awsCfg, brOpts...),
		modelID: modelID,
	}, nil
}

// NewWithClient builds an Engine around a caller-supplied ConverseAPI,
// for tests that want to avoid a real AWS round trip.
func NewWithClient(client ConverseAPI, modelID string) *Engine {
	return &Engine{client: client, modelID: modelID}
}

// Generate streams a GenerateEvent sequence, matching the contract shared
// with the openai/anthropic engines: Started, per-tool Example/ToolCompleted,
// final Completed carrying the total examples produced. Bedrock's Converse
// API is request/response rather than chunked, so each tool prompt is one
// Converse call whose reply text is split into per-line examples afterward.
func (e *Engine) Generate(ctx context.Context, req generator.Request) iter.Seq2[generator.GenerateEvent, error] {
	return func(yield func(generator.GenerateEvent, error) bool) {
		if !yield(generator.GenerateEvent{Kind: generator.EventStarted}, nil) {
			return
		}

		total := 0
		for _, tool := range req.Tools {
			text, err := e.converse(ctx, generator.BuildPrompt(tool, req.Count))
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

func (e *Engine) converse(ctx context.Context, prompt string) (string, error) {
	output, err := e.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(e.modelID),
		Messages: []brtypes.Message{
			{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: prompt}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generator: bedrock: converse failed: %w", err)
	}

	msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("generator: bedrock: unexpected output type %T", output.Output)
	}

	var text string
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text += tb.Value
		}
	}
	return text, nil
}
