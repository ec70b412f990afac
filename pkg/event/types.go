package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/apictl/pkg/api"
)

// Event is implemented by everything published on a Bus.
type Event interface {
	// EventType returns the "category.action" identifier of the event.
	EventType() string
	// ID returns a unique identifier for this occurrence.
	ID() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event types.
const (
	TypeAPIChanged = "api.changed"
)

type baseEvent struct {
	eventType string
	id        string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) ID() string           { return e.id }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		id:        uuid.NewString(),
		timestamp: time.Now().UTC(),
	}
}

// APIChangedEvent is published after an API definition was persisted.
// API is the definition returned by the persistence service.
type APIChangedEvent struct {
	baseEvent
	API *api.API
}

// NewAPIChangedEvent creates an APIChangedEvent.
func NewAPIChangedEvent(a *api.API) APIChangedEvent {
	return APIChangedEvent{
		baseEvent: newBaseEvent(TypeAPIChanged),
		API:       a,
	}
}
