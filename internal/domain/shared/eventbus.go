package shared

import "context"

// EventHandler reacts to published domain events. Order emails, business
// metrics and the Kafka forwarder are handlers.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types to subscribe to; empty means all of them
	EventTypes() []string
}

// EventPublisher is what application services publish through
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the in-process dispatcher wired at startup
type EventBus interface {
	EventPublisher
	// Subscribe uses the handler's own EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PublishAndClear publishes what src has buffered. Events are cleared even
// when publishing fails: they describe a change that is already committed
// and must not be raised a second time by a later save.
func PublishAndClear(ctx context.Context, publisher EventPublisher, src EventSource) error {
	events := src.GetDomainEvents()
	src.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return nil
	}
	return publisher.Publish(ctx, events...)
}
