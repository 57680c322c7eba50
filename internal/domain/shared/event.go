package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and published after commit
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent is embedded by concrete events. Its fields travel in the
// event envelope, so they are excluded from the payload.
type BaseDomainEvent struct {
	ID      uuid.UUID `json:"-"`
	Type    string    `json:"-"`
	At      time.Time `json:"-"`
	Subject uuid.UUID `json:"-"`
	Kind    string    `json:"-"`
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Subject }
func (e *BaseDomainEvent) AggregateType() string  { return e.Kind }

// NewBaseDomainEvent stamps a new event of eventType about the kind aggregate id
func NewBaseDomainEvent(eventType, kind string, id uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:      uuid.New(),
		Type:    eventType,
		At:      Now(),
		Subject: id,
		Kind:    kind,
	}
}
