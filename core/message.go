package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author class of a Message.
type Role string

const (
	// RoleRequester marks messages originating from the caller (or a parent
	// worker restating a sub-request).
	RoleRequester Role = "requester"
	// RoleWorker marks messages authored by a worker (oracle-produced text).
	RoleWorker Role = "worker"
	// RoleSystem marks bookkeeping messages such as capability invocation
	// outcomes and delegation notes.
	RoleSystem Role = "system"
)

// InvocationRef links a message to the capability invocation it caused or
// resulted from.
type InvocationRef struct {
	Capability string `json:"capability"`
	Action     string `json:"action"`
	Attempts   int    `json:"attempts,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Message is a single entry in a worker's per-session conversation log.
// Append-only once written.
type Message struct {
	ID         string         `json:"id"`
	Role       Role           `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Invocation *InvocationRef `json:"invocation,omitempty"`
}

// NewMessage creates a message authored now with a fresh ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvocationMessage creates a system message recording a capability
// invocation outcome, successful or failed per ref.Error.
func NewInvocationMessage(content string, ref InvocationRef) Message {
	m := NewMessage(RoleSystem, content)
	m.Invocation = &ref
	return m
}

// NewID generates a new unique identifier for messages and requests.
func NewID() string { return uuid.NewString() }
