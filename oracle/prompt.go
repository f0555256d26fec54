package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deskmesh/deskmesh/core"
)

// Tool names shared by the provider adapters. A model that wants to invoke a
// capability or delegate calls one of these; plain text output is an Answer.
const (
	ToolInvokeCapability = "invoke_capability"
	ToolDelegateToWorker = "delegate_to_worker"
)

// SystemText renders the worker's framing: identity, role, instructions,
// available capabilities and children, plus the request-scoped date/timezone.
func SystemText(p Prompt) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s", p.Worker)
	if p.Role != "" {
		fmt.Fprintf(&b, ", role: %s", p.Role)
	}
	b.WriteString(".\n")

	for _, inst := range p.Instructions {
		b.WriteString(inst)
		b.WriteString("\n")
	}

	if len(p.Capabilities) > 0 {
		b.WriteString("\nYou can invoke these capabilities with the invoke_capability tool:\n")
		for _, c := range p.Capabilities {
			fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
			for _, a := range c.Actions {
				fmt.Fprintf(&b, "  - %s: %s\n", a.Name, a.Description)
			}
		}
	}

	if len(p.Children) > 0 {
		b.WriteString("\nYou can delegate to these workers with the delegate_to_worker tool:\n")
		for _, c := range p.Children {
			fmt.Fprintf(&b, "- %s (role: %s): %s\n", c.Name, c.Role, c.Description)
		}
	}

	if p.Summarize {
		b.WriteString("\nThe latest system message holds the result of the capability you invoked. Summarize the outcome for the requester in plain language. Do not call any tool.\n")
	} else {
		b.WriteString("\nEither answer the request directly, invoke exactly one capability, or delegate to exactly one worker.\n")
	}

	fmt.Fprintf(&b, "\nToday's date is %s and timezone is %s.\n",
		p.RequestContext.Now.Format("2006-01-02"), p.RequestContext.Timezone)

	return b.String()
}

// Transcript flattens the history window plus the pending request into
// (role, text) pairs the adapters can map onto provider message formats.
// Roles are "user", "assistant" and "system".
func Transcript(p Prompt) []Turn {
	turns := make([]Turn, 0, len(p.History)+1)
	for _, m := range p.History {
		switch m.Role {
		case core.RoleRequester:
			turns = append(turns, Turn{Role: "user", Text: m.Content})
		case core.RoleWorker:
			turns = append(turns, Turn{Role: "assistant", Text: m.Content})
		case core.RoleSystem:
			turns = append(turns, Turn{Role: "system", Text: m.Content})
		}
	}
	if !p.Summarize {
		turns = append(turns, Turn{Role: "user", Text: p.Request})
	}
	return turns
}

// Turn is one entry of a flattened transcript.
type Turn struct {
	Role string
	Text string
}

// InvokeCapabilitySchema builds the JSON schema for the invoke_capability
// tool, constraining the capability name to the worker's bound set.
func InvokeCapabilitySchema(p Prompt) map[string]any {
	names := make([]string, 0, len(p.Capabilities))
	for _, c := range p.Capabilities {
		names = append(names, c.Name)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"capability": map[string]any{
				"type":        "string",
				"enum":        names,
				"description": "Name of the bound capability to invoke",
			},
			"action": map[string]any{
				"type":        "string",
				"description": "Action of the capability to perform",
			},
			"params": map[string]any{
				"type":        "object",
				"description": "Arguments for the action per its schema",
			},
		},
		"required": []string{"capability", "action"},
	}
}

// DelegateSchema builds the JSON schema for the delegate_to_worker tool,
// constraining the target to the worker's declared children.
func DelegateSchema(p Prompt) map[string]any {
	names := make([]string, 0, len(p.Children))
	for _, c := range p.Children {
		names = append(names, c.Name)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"worker": map[string]any{
				"type":        "string",
				"enum":        names,
				"description": "Name of the child worker to delegate to",
			},
			"request": map[string]any{
				"type":        "string",
				"description": "The restated sub-request for the child worker",
			},
		},
		"required": []string{"worker", "request"},
	}
}

// ParseToolCall maps a provider tool call onto a Decision. Adapters feed it
// the raw JSON arguments; malformed payloads are transport-level failures.
func ParseToolCall(name string, args json.RawMessage) (core.Decision, error) {
	switch name {
	case ToolInvokeCapability:
		var payload struct {
			Capability string         `json:"capability"`
			Action     string         `json:"action"`
			Params     map[string]any `json:"params"`
		}
		if err := json.Unmarshal(args, &payload); err != nil {
			return nil, fmt.Errorf("malformed %s arguments: %w", name, err)
		}
		if payload.Params == nil {
			payload.Params = map[string]any{}
		}
		return core.InvokeCapability{
			Capability: payload.Capability,
			Action:     payload.Action,
			Params:     payload.Params,
		}, nil
	case ToolDelegateToWorker:
		var payload struct {
			Worker  string `json:"worker"`
			Request string `json:"request"`
		}
		if err := json.Unmarshal(args, &payload); err != nil {
			return nil, fmt.Errorf("malformed %s arguments: %w", name, err)
		}
		return core.Delegate{Worker: payload.Worker, SubRequest: payload.Request}, nil
	default:
		return nil, fmt.Errorf("unexpected tool call %q", name)
	}
}
