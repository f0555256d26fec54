package oracle

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmesh/deskmesh/capability"
	"github.com/deskmesh/deskmesh/core"
)

func samplePrompt() Prompt {
	return Prompt{
		Worker:       "mail-worker",
		Role:         "email operator",
		Instructions: []string{"Never send without a subject."},
		Capabilities: []CapabilitySpec{{
			Name:        "mail",
			Description: "Read and send email",
			Actions: []capability.Action{
				{Name: "send_email", Description: "Send an email"},
			},
		}},
		Children: []ChildSpec{{
			Name: "email-writer", Role: "drafting", Description: "Drafts email bodies",
		}},
		History: []core.Message{
			core.NewMessage(core.RoleRequester, "email bob about the launch"),
			core.NewMessage(core.RoleWorker, "drafting now"),
			core.NewMessage(core.RoleSystem, "capability mail.send_email returned: ok"),
		},
		Request: "email bob about the launch",
		RequestContext: core.RequestContext{
			Now:      time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
			Timezone: "UTC",
		},
	}
}

func TestSystemText(t *testing.T) {
	text := SystemText(samplePrompt())

	assert.Contains(t, text, "You are mail-worker, role: email operator.")
	assert.Contains(t, text, "Never send without a subject.")
	assert.Contains(t, text, "invoke_capability")
	assert.Contains(t, text, "- mail: Read and send email")
	assert.Contains(t, text, "send_email")
	assert.Contains(t, text, "delegate_to_worker")
	assert.Contains(t, text, "email-writer")
	assert.Contains(t, text, "Today's date is 2026-08-29 and timezone is UTC.")
}

func TestSystemText_SummarizeMode(t *testing.T) {
	p := samplePrompt()
	p.Summarize = true

	text := SystemText(p)
	assert.Contains(t, text, "Summarize the outcome")
	assert.NotContains(t, text, "delegate to exactly one worker")
}

func TestTranscript(t *testing.T) {
	turns := Transcript(samplePrompt())

	require.Len(t, turns, 4)
	assert.Equal(t, Turn{Role: "user", Text: "email bob about the launch"}, turns[0])
	assert.Equal(t, "assistant", turns[1].Role)
	assert.Equal(t, "system", turns[2].Role)
	// The pending request is appended as the final user turn.
	assert.Equal(t, Turn{Role: "user", Text: "email bob about the launch"}, turns[3])
}

func TestTranscript_SummarizeOmitsRequest(t *testing.T) {
	p := samplePrompt()
	p.Summarize = true

	turns := Transcript(p)
	require.Len(t, turns, 3)
	assert.Equal(t, "system", turns[2].Role)
}

func TestSchemas_ConstrainTargets(t *testing.T) {
	p := samplePrompt()

	inv := InvokeCapabilitySchema(p)
	props := inv["properties"].(map[string]any)
	capProp := props["capability"].(map[string]any)
	assert.Equal(t, []string{"mail"}, capProp["enum"])

	del := DelegateSchema(p)
	props = del["properties"].(map[string]any)
	workerProp := props["worker"].(map[string]any)
	assert.Equal(t, []string{"email-writer"}, workerProp["enum"])
}

func TestParseToolCall_InvokeCapability(t *testing.T) {
	args := json.RawMessage(`{"capability":"mail","action":"send_email","params":{"to":"bob@example.com"}}`)

	d, err := ParseToolCall(ToolInvokeCapability, args)
	require.NoError(t, err)

	inv, ok := d.(core.InvokeCapability)
	require.True(t, ok)
	assert.Equal(t, "mail", inv.Capability)
	assert.Equal(t, "send_email", inv.Action)
	assert.Equal(t, "bob@example.com", inv.Params["to"])
}

func TestParseToolCall_MissingParamsBecomesEmptyMap(t *testing.T) {
	d, err := ParseToolCall(ToolInvokeCapability, json.RawMessage(`{"capability":"mail","action":"read_inbox"}`))
	require.NoError(t, err)

	inv := d.(core.InvokeCapability)
	assert.NotNil(t, inv.Params)
	assert.Empty(t, inv.Params)
}

func TestParseToolCall_Delegate(t *testing.T) {
	d, err := ParseToolCall(ToolDelegateToWorker, json.RawMessage(`{"worker":"email-writer","request":"draft it"}`))
	require.NoError(t, err)

	del, ok := d.(core.Delegate)
	require.True(t, ok)
	assert.Equal(t, "email-writer", del.Worker)
	assert.Equal(t, "draft it", del.SubRequest)
}

func TestParseToolCall_Errors(t *testing.T) {
	_, err := ParseToolCall("mystery_tool", json.RawMessage(`{}`))
	assert.Error(t, err)

	_, err = ParseToolCall(ToolInvokeCapability, json.RawMessage(`not-json`))
	assert.Error(t, err)
}

func TestScripted(t *testing.T) {
	s := NewScripted().
		Add("root", core.Answer{Text: "hello"}).
		FailWith("root", assert.AnError)

	d, err := s.Decide(context.Background(), Prompt{Worker: "root"})
	require.NoError(t, err)
	assert.Equal(t, core.Answer{Text: "hello"}, d)

	_, err = s.Decide(context.Background(), Prompt{Worker: "root"})
	assert.ErrorIs(t, err, assert.AnError)

	// Exhausted queues fail loudly.
	_, err = s.Decide(context.Background(), Prompt{Worker: "root"})
	assert.Error(t, err)

	assert.Equal(t, 3, s.Calls())
	assert.Len(t, s.Prompts(), 3)
}

func TestUnavailable(t *testing.T) {
	err := Unavailable(assert.AnError)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, IsUnavailable(assert.AnError))
}
