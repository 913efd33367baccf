// Package proto defines the shared event and context types exchanged between
// the host orchestration runtime and the coordination components.
package proto

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies a pipeline lifecycle event delivered by the host runtime.
type EventKind string

const (
	// EventToolInvoked fires after an agent's tool call completes.
	EventToolInvoked EventKind = "TOOL_INVOKED"

	// EventAgentCompleted fires after an agent finishes its invocation.
	EventAgentCompleted EventKind = "AGENT_COMPLETED"

	// EventBeforeAgent fires before an agent's turn starts.
	EventBeforeAgent EventKind = "BEFORE_AGENT"

	// EventAfterAgent fires after an agent's turn ends.
	EventAfterAgent EventKind = "AFTER_AGENT"
)

// Payload keys attached to tool results by the delegation loop guard.
const (
	KeyEscalationTriggered = "escalation_triggered"
	KeyEscalationReason    = "escalation_reason"
)

// Event is one lifecycle event as observed by the host runtime.
// Events for a single session are delivered in observation order.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Agent     string    `json:"agent,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID and UTC timestamp.
func NewEvent(kind EventKind, sessionID, agent string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		SessionID: sessionID,
		Agent:     agent,
		Timestamp: time.Now().UTC(),
	}
}

// ToolResult is the mutable result payload of one tool invocation. The guard
// annotates a copy of it on escalation; the original is never mutated.
type ToolResult map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, writable map.
func (r ToolResult) Clone() ToolResult {
	out := make(ToolResult, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SetPayload stores a value under key.
func (r ToolResult) SetPayload(key string, value any) {
	r[key] = value
}

// GetPayload reads a value by key.
func (r ToolResult) GetPayload(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	return v, ok
}

// EscalationTriggered reports whether the guard marked this result.
func (r ToolResult) EscalationTriggered() bool {
	v, ok := r.GetPayload(KeyEscalationTriggered)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// TurnContext carries the mutable per-turn state the sequencer may annotate
// before an agent runs. Optional fields are explicit: an empty
// InjectedDocument means no document was injected this turn.
type TurnContext struct {
	SessionID string
	Agent     string

	// UserInput is the user-facing input for the upcoming turn. The
	// sequencer appends its injection block here.
	UserInput string

	// InjectedDocument names the document injected this turn, if any.
	InjectedDocument string
}

// AppendUserInput appends text to the user input, separated by a blank line.
func (c *TurnContext) AppendUserInput(text string) {
	if c.UserInput == "" {
		c.UserInput = text
		return
	}
	c.UserInput += "\n\n" + text
}
