// Package events carries the in-process publish/subscribe plumbing the
// modules communicate over. Event payloads live with the modules that emit
// them; this package only defines the contracts.
package events

import (
	"context"
	"time"
)

// Event is implemented by every payload published on the bus.
type Event interface {
	// EventName identifies the event type; handlers subscribe by this name.
	EventName() string
	// OccurredAt is the emission time.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all event payloads. Embed it and
// implement EventName on the payload type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a BaseEvent with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes published events to the handlers subscribed to their name.
type Bus interface {
	// Publish delivers the event to every subscribed handler. Handlers run
	// asynchronously; publish never blocks on them.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler to finish.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matching the value
	// the payload returns from EventName.
	Subscribe(eventName string, handler Handler)
}
