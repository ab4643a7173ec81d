package orchestrator

import (
	"context"
	"errors"
	"fmt"
)

// Bus is an in-process Registrar. Handlers for an event run one after the
// other, in registration order.
type Bus struct {
	handlers map[EventType][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[EventType][]Handler{}}
}

// On registers a handler for eventType.
func (b *Bus) On(eventType EventType, handler Handler) {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Handlers returns how many handlers are registered for eventType.
func (b *Bus) Handlers(eventType EventType) int {
	return len(b.handlers[eventType])
}

// Emit runs every handler registered for the event. All handlers run even if
// one fails; the failures are joined.
func (b *Bus) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range b.handlers[event.Type] {
		if err := handler(ctx, event); err != nil {
			name := "<nil>"
			if event.Module != nil {
				name = event.Module.Name
			}
			errs = append(errs, fmt.Errorf("%s handler failed for %s: %w", event.Type, name, err))
		}
	}
	return errors.Join(errs...)
}
