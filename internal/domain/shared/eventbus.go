package shared

import (
	"context"
	"fmt"
)

// EventHandler is a saga step driven by outbox deliveries. Delivery is at
// least once, so Handle must tolerate seeing the same event again.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the events the step reacts to; empty means all
	EventTypes() []string
}

// EventPublisher hands delivered events to their handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed saga steps
type EventBus interface {
	EventPublisher
	// Subscribe registers handler for eventTypes, or for its own
	// EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes events into the outbox as part of the business
// transaction tx, which is whatever handle the persistence layer uses
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, tx any, events ...DomainEvent) error
}

// FlushEvents saves the pending events of agg through saver inside tx and
// clears them. On error the events stay pending and the caller's
// transaction is expected to roll back. A nil saver discards them.
func FlushEvents(ctx context.Context, saver OutboxEventSaver, tx any, agg AggregateRoot) error {
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if saver != nil {
		if err := saver.SaveEvents(ctx, tx, events...); err != nil {
			return fmt.Errorf("save %d %s event(s) to outbox: %w", len(events), events[0].AggregateType(), err)
		}
	}
	agg.ClearDomainEvents()
	return nil
}
