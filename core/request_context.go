package core

import "time"

// RequestContext carries request-scoped framing shared by every worker a
// traversal touches: the session identity, a request ID for correlation, and
// the date/timezone snapshot injected into oracle prompts. It is captured
// once when a request enters the orchestrator so that all levels of the
// delegation chain see the same values.
type RequestContext struct {
	RequestID string
	SessionID string
	Now       time.Time
	Timezone  string
}

// NewRequestContext snapshots the current time and local timezone for a new
// request in the given session.
func NewRequestContext(sessionID string) RequestContext {
	now := time.Now()
	return RequestContext{
		RequestID: NewID(),
		SessionID: sessionID,
		Now:       now,
		Timezone:  now.Location().String(),
	}
}
