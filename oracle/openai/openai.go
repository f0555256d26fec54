// Package openai provides an oracle adapter for the OpenAI Chat Completions
// API. It maps the routing tool calls (invoke_capability, delegate_to_worker)
// onto the decision variant; plain text output is an Answer.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/deskmesh/deskmesh/core"
	"github.com/deskmesh/deskmesh/oracle"
)

// Options configure the OpenAI oracle adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Oracle wraps the OpenAI Chat Completions API behind the oracle.Oracle
// interface.
type Oracle struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI oracle using the official client.
func New(optFns ...func(o *Options)) *Oracle {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI oracle from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Oracle {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Oracle{client: client, opts: opts}
}

// Decide implements oracle.Oracle. Transport failures are wrapped as
// Unavailable so the router applies its own bounded retry.
func (o *Oracle) Decide(ctx context.Context, prompt oracle.Prompt) (core.Decision, error) {
	params := o.buildParams(prompt)

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, oracle.Unavailable(fmt.Errorf("openai api error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, oracle.Unavailable(fmt.Errorf("openai: empty completion"))
	}

	choice := resp.Choices[0]
	for _, call := range choice.Message.ToolCalls {
		decision, err := oracle.ParseToolCall(call.Function.Name, json.RawMessage(call.Function.Arguments))
		if err != nil {
			return nil, oracle.Unavailable(err)
		}
		return decision, nil
	}

	return core.Answer{Text: strings.TrimSpace(choice.Message.Content)}, nil
}

func (o *Oracle) buildParams(prompt oracle.Prompt) openai.ChatCompletionNewParams {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(oracle.SystemText(prompt)),
	}
	for _, turn := range oracle.Transcript(prompt) {
		if turn.Text == "" {
			continue
		}
		switch turn.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(turn.Text))
		case "system":
			messages = append(messages, openai.SystemMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               o.opts.Model,
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(o.opts.MaxCompletionTokens),
	}

	if prompt.Summarize {
		return params
	}

	var tools []openai.ChatCompletionToolParam
	if len(prompt.Capabilities) > 0 {
		tools = append(tools, toolParam(
			oracle.ToolInvokeCapability,
			"Invoke one of this worker's bound capabilities",
			oracle.InvokeCapabilitySchema(prompt),
		))
	}
	if len(prompt.Children) > 0 {
		tools = append(tools, toolParam(
			oracle.ToolDelegateToWorker,
			"Delegate the request to exactly one child worker",
			oracle.DelegateSchema(prompt),
		))
	}
	params.Tools = tools

	return params
}

func toolParam(name, description string, spec map[string]any) openai.ChatCompletionToolParam {
	return openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        name,
			Description: openai.String(description),
			Parameters:  spec,
		},
	}
}
