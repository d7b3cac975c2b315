// Package events provides the streaming event protocol for pipeline
// progress. Events form a discriminated union keyed by Type; the field
// names are part of the contract with downstream UIs and must be
// preserved, but the transport (SSE, WebSocket) is unconstrained.
package events

import "time"

// Event types emitted by the streaming orchestrator, in causal order:
// one status at pipeline start, agent_start/agent_complete per stage,
// agent_log for full per-agent audit records, then exactly one of
// complete or error. A consumer reading only complete/error sees the
// same contract as the non-streaming pipeline.
const (
	TypeStatus        = "status"
	TypeAgentStart    = "agent_start"
	TypeAgentComplete = "agent_complete"
	TypeAgentLog      = "agent_log"
	TypeComplete      = "complete"
	TypeError         = "error"
)

// Event is one streamed progress message.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// New builds an event stamped with the current time.
func New(eventType string, data map[string]any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now()}
}

// SessionChannel returns the channel name for one session's events.
func SessionChannel(sessionID string) string {
	return "session:" + sessionID
}
