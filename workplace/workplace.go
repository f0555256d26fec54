// Package workplace provides the stock digital-workplace capability surfaces
// (messaging, meeting scheduling, mail, documents, spreadsheets, calendar)
// and a ready-made worker hierarchy routing between them.
//
// The bindings here declare the real action names and parameter schemas but
// acknowledge invocations locally instead of contacting a provider; swap in
// real provider adapters by registering bindings with the same names and
// action sets.
package workplace

import (
	"context"

	"github.com/deskmesh/deskmesh/capability"
)

// DefaultChannel receives messages when no channel is specified.
const DefaultChannel = "#project"

func ack(fields map[string]any) capability.HandlerFunc {
	return func(_ context.Context, params map[string]any) (any, error) {
		out := map[string]any{"status": "ok"}
		for k, v := range fields {
			out[k] = v
		}
		for k, v := range params {
			out[k] = v
		}
		return out, nil
	}
}

// Messaging builds the chat binding (message posting and updates).
func Messaging() *capability.Func {
	return capability.NewFunc("messaging", "Post and manage messages in team chat channels").
		Handle(capability.Action{
			Name:        "send_message",
			Description: "Send a message to a channel or user; defaults to " + DefaultChannel,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"channel": map[string]any{"type": "string", "description": "Target channel, defaults to " + DefaultChannel},
					"text":    map[string]any{"type": "string", "description": "Message text"},
				},
				"required": []string{"text"},
			},
		}, func(ctx context.Context, params map[string]any) (any, error) {
			if _, ok := params["channel"]; !ok {
				params["channel"] = DefaultChannel
			}
			return ack(map[string]any{"action": "send_message"})(ctx, params)
		}).
		Handle(capability.Action{
			Name:        "update_message",
			Description: "Update a previously sent message",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message_id": map[string]any{"type": "string"},
					"text":       map[string]any{"type": "string"},
				},
				"required": []string{"message_id", "text"},
			},
		}, ack(map[string]any{"action": "update_message"}))
}

// Meetings builds the video-conference scheduling binding.
func Meetings() *capability.Func {
	return capability.NewFunc("meetings", "Schedule and manage online meetings").
		Handle(capability.Action{
			Name:        "schedule_meeting",
			Description: "Create a meeting and produce a join link",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topic":            map[string]any{"type": "string"},
					"start_time":       map[string]any{"type": "string", "description": "RFC 3339 start time"},
					"duration_minutes": map[string]any{"type": "integer"},
					"participants":     map[string]any{"type": "array"},
				},
				"required": []string{"topic", "start_time"},
			},
		}, ack(map[string]any{"action": "schedule_meeting"})).
		Handle(capability.Action{
			Name:        "cancel_meeting",
			Description: "Cancel a scheduled meeting",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"meeting_id": map[string]any{"type": "string"},
				},
				"required": []string{"meeting_id"},
			},
		}, ack(map[string]any{"action": "cancel_meeting"}))
}

// Mail builds the email binding.
func Mail() *capability.Func {
	return capability.NewFunc("mail", "Read, compose and send email").
		Handle(capability.Action{
			Name:        "send_email",
			Description: "Send an email to a recipient",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to":      map[string]any{"type": "string"},
					"subject": map[string]any{"type": "string"},
					"body":    map[string]any{"type": "string"},
				},
				"required": []string{"to", "subject", "body"},
			},
		}, ack(map[string]any{"action": "send_email"})).
		Handle(capability.Action{
			Name:        "read_inbox",
			Description: "Summarize recent inbox messages",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "integer"},
				},
			},
		}, ack(map[string]any{"action": "read_inbox"}))
}

// Documents builds the document editing binding.
func Documents() *capability.Func {
	return capability.NewFunc("documents", "Create and edit rich-text documents").
		Handle(capability.Action{
			Name:        "create_document",
			Description: "Create a document from markdown content",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":    map[string]any{"type": "string"},
					"markdown": map[string]any{"type": "string"},
				},
				"required": []string{"title", "markdown"},
			},
		}, ack(map[string]any{"action": "create_document"})).
		Handle(capability.Action{
			Name:        "update_document",
			Description: "Replace a document's content",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"document_id": map[string]any{"type": "string"},
					"markdown":    map[string]any{"type": "string"},
				},
				"required": []string{"document_id", "markdown"},
			},
		}, ack(map[string]any{"action": "update_document"}))
}

// Spreadsheets builds the spreadsheet editing binding.
func Spreadsheets() *capability.Func {
	return capability.NewFunc("spreadsheets", "Create spreadsheets and manage their data").
		Handle(capability.Action{
			Name:        "create_sheet",
			Description: "Create a new spreadsheet",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
				},
				"required": []string{"title"},
			},
		}, ack(map[string]any{"action": "create_sheet"})).
		Handle(capability.Action{
			Name:        "batch_update",
			Description: "Write rows of values into a sheet range",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"sheet_id": map[string]any{"type": "string"},
					"range":    map[string]any{"type": "string"},
					"values":   map[string]any{"type": "array"},
				},
				"required": []string{"sheet_id", "values"},
			},
		}, ack(map[string]any{"action": "batch_update"})).
		Handle(capability.Action{
			Name:        "lookup_row",
			Description: "Find a row matching search criteria",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"sheet_id": map[string]any{"type": "string"},
					"query":    map[string]any{"type": "string"},
				},
				"required": []string{"sheet_id", "query"},
			},
		}, ack(map[string]any{"action": "lookup_row"}))
}

// Calendar builds the calendar management binding.
func Calendar() *capability.Func {
	return capability.NewFunc("calendar", "View and manage calendar events").
		Handle(capability.Action{
			Name:        "list_events",
			Description: "List upcoming events",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"days_ahead": map[string]any{"type": "integer"},
				},
			},
		}, ack(map[string]any{"action": "list_events"})).
		Handle(capability.Action{
			Name:        "create_event",
			Description: "Create a calendar event",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":     map[string]any{"type": "string"},
					"start":     map[string]any{"type": "string", "description": "RFC 3339 start time"},
					"end":       map[string]any{"type": "string", "description": "RFC 3339 end time"},
					"attendees": map[string]any{"type": "array"},
				},
				"required": []string{"title", "start"},
			},
		}, ack(map[string]any{"action": "create_event"})).
		Handle(capability.Action{
			Name:        "cancel_event",
			Description: "Cancel an existing event",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"event_id": map[string]any{"type": "string"},
				},
				"required": []string{"event_id"},
			},
		}, ack(map[string]any{"action": "cancel_event"}))
}

// Register adds every workplace binding to the registry.
func Register(reg *capability.Registry) error {
	for _, b := range []capability.Binding{
		Messaging(), Meetings(), Mail(), Documents(), Spreadsheets(), Calendar(),
	} {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}
