package core

import (
	"context"
	"time"
)

// EventType identifies a semantic governance event emitted by the core.
type EventType string

const (
	EventDecision     EventType = "governance.decision"
	EventTransition   EventType = "governance.transition"
	EventLimitWarning EventType = "governance.limit.warning"
	EventHalt         EventType = "governance.halt"
	EventViolation    EventType = "governance.violation"
	EventDisclosure   EventType = "governance.disclosure"
	EventResume       EventType = "governance.resume"
)

// Event captures a semantic streaming/logging event. The execution-stream
// transport and chat UI subscribe to these; the core never renders them.
type Event struct {
	Type        EventType
	ExecutionID string
	Timestamp   time.Time
	Payload     map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, executionID string, payload map[string]any) Event {
	return Event{
		Type:        eventType,
		ExecutionID: executionID,
		Timestamp:   time.Now().UTC(),
		Payload:     payload,
	}
}
