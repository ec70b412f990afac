// Package event provides the change notifier used by apictl editors.
//
// Editors publish typed events on a [Bus] after a successful commit; views
// that display the same API subscribe by event type instead of sharing
// mutable state.
package event

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/getmockd/apictl/pkg/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard is the subscription key for handlers that receive every event.
const wildcard = "*"

// Bus is a synchronous pub-sub event bus.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]Handler
	log           *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler panics.
func WithLogger(log *slog.Logger) BusOption {
	return func(b *Bus) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subscriptions: make(map[string][]Handler),
		log:           logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for one event type. Handlers stay
// registered for the life of the bus.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[eventType] = append(b.subscriptions[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.Subscribe(wildcard, handler)
}

// Publish dispatches an event to the handlers of its type, then to wildcard
// handlers, each group in registration order. A panicking handler is logged
// and does not stop delivery to the others.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	specific := append([]Handler(nil), b.subscriptions[e.EventType()]...)
	all := append([]Handler(nil), b.subscriptions[wildcard]...)
	b.mu.RUnlock()

	for _, handler := range specific {
		b.safeCall(handler, e)
	}
	for _, handler := range all {
		b.safeCall(handler, e)
	}
}

func (b *Bus) safeCall(handler Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				"event", e.EventType(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	handler(e)
}
