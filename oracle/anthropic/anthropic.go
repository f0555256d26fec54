// Package anthropic provides an oracle adapter for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/oracle"
)

// Options configures the Anthropic oracle adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Oracle wraps the Anthropic Messages API behind the oracle.Oracle interface.
// Routing decisions are surfaced to the model as two tools
// (invoke_capability, delegate_to_worker); plain text output is an Answer.
type Oracle struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Oracle{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic oracle from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Oracle{client: client, opts: opts}
}

// Decide implements oracle.Oracle. Transport failures are wrapped as
// Unavailable so the router applies its own bounded retry.
func (o *Oracle) Decide(ctx context.Context, prompt oracle.Prompt) (core.Decision, error) {
	params := anthropic.MessageNewParams{
		Model:       o.opts.Model,
		Messages:    buildMessages(prompt),
		MaxTokens:   o.opts.MaxTokens,
		Temperature: anthropic.Float(o.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: oracle.SystemText(prompt)},
		},
	}

	if !prompt.Summarize {
		params.Tools = buildTools(prompt)
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return nil, oracle.Unavailable(fmt.Errorf("anthropic api error: %w", err))
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			args, err := json.Marshal(toolBlock.Input)
			if err != nil {
				return nil, oracle.Unavailable(fmt.Errorf("anthropic tool input: %w", err))
			}
			decision, err := oracle.ParseToolCall(toolBlock.Name, args)
			if err != nil {
				return nil, oracle.Unavailable(err)
			}
			return decision, nil
		}
	}

	return core.Answer{Text: strings.TrimSpace(text.String())}, nil
}

// buildMessages converts the transcript into Anthropic message format.
// System-role bookkeeping turns are folded into user messages since the
// Messages API only accepts user/assistant roles inline.
func buildMessages(prompt oracle.Prompt) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, turn := range oracle.Transcript(prompt) {
		if turn.Text == "" {
			continue
		}
		switch turn.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		case "system":
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock("[system] "+turn.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}

	if len(messages) == 0 {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.Request)))
	}

	return messages
}

// buildTools exposes the routing tools relevant to the deciding worker.
func buildTools(prompt oracle.Prompt) []anthropic.ToolUnionParam {
	var tools []anthropic.ToolUnionParam

	if len(prompt.Capabilities) > 0 {
		tools = append(tools, toolParam(oracle.ToolInvokeCapability, oracle.InvokeCapabilitySchema(prompt)))
	}
	if len(prompt.Children) > 0 {
		tools = append(tools, toolParam(oracle.ToolDelegateToWorker, oracle.DelegateSchema(prompt)))
	}

	return tools
}

func toolParam(name string, spec map[string]any) anthropic.ToolUnionParam {
	inputSchema := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}
	if properties, ok := spec["properties"]; ok {
		inputSchema.Properties = properties
	}
	if required, ok := spec["required"].([]string); ok {
		inputSchema.Required = required
	}
	return anthropic.ToolUnionParamOfTool(inputSchema, name)
}
