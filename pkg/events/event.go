package events

import (
	"context"
	"time"
)

// Domain event codes. Published on subject "events.<CODE>".
const (
	SessionCreated            = "SESSION_CREATED"
	ConversationStarted       = "CONVERSATION_STARTED"
	FeedbackGenerationStarted = "FEEDBACK_GENERATION_STARTED"
	FeedbackGenerated         = "FEEDBACK_GENERATED"
	SessionFailed             = "SESSION_FAILED"
	PersonaAgentProvisioned   = "PERSONA_AGENT_PROVISIONED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BaseEvent is the one Event implementation used across the service.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
