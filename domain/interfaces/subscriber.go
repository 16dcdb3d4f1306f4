package interfaces

import (
	"context"

	"quizbot/domain/events"
)

// EventHandler reacts to a published domain event
type EventHandler func(ctx context.Context, event events.Event) error

// EventSubscriber registers in-process handlers for domain events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler EventHandler)
}
