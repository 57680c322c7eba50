package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// Providers
const (
	ProviderStripe   = "stripe"
	ProviderShipping = "shipping"
)

// Status is the processing status of a received webhook
type Status string

const (
	StatusReceived  Status = "RECEIVED"
	StatusProcessed Status = "PROCESSED"
	StatusFailed    Status = "FAILED"
)

// StaleAfter is how long a RECEIVED row may sit before another delivery
// is allowed to take it over.
const StaleAfter = 5 * time.Minute

const maxErrorLength = 1000

// Event is the dedup row of a provider notification, unique on (provider, event_id)
type Event struct {
	shared.BaseEntity
	Provider    string
	EventID     string
	EventType   string
	Status      Status
	Attempts    int
	LastError   string
	Payload     []byte
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}

// NewEvent creates a RECEIVED event for a first delivery
func NewEvent(provider, eventID, eventType string, payload []byte) (*Event, error) {
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(eventID) == "" {
		return nil, shared.ErrInvalidInput.Withf("webhook provider and event id are required")
	}
	base := shared.NewBaseEntity()
	return &Event{
		BaseEntity: base,
		Provider:   provider,
		EventID:    eventID,
		EventType:  eventType,
		Status:     StatusReceived,
		Attempts:   1,
		Payload:    payload,
		ReceivedAt: base.CreatedAt,
	}, nil
}

// IsDuplicate reports whether a redelivery of this event should be skipped.
// Processed events are skipped, and so are RECEIVED ones still being worked on.
func (e *Event) IsDuplicate(now time.Time) bool {
	switch e.Status {
	case StatusProcessed:
		return true
	case StatusReceived:
		return now.Sub(e.UpdatedAt) < StaleAfter
	default:
		return false
	}
}

// Reopen prepares a failed or stale event for another attempt
func (e *Event) Reopen() {
	e.Status = StatusReceived
	e.Attempts++
	e.Touch()
}

// Complete marks the event as processed
func (e *Event) Complete() {
	now := time.Now()
	e.Status = StatusProcessed
	e.LastError = ""
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// Fail records a processing error so the next delivery retries it
func (e *Event) Fail(err error) {
	e.Status = StatusFailed
	msg := shared.Truncate(err.Error(), maxErrorLength)
	e.LastError = msg
	e.Touch()
}

// Repository defines the interface for webhook event persistence
type Repository interface {
	// Begin claims the event for processing. When (provider, event_id) already
	// exists and IsDuplicate holds, it returns the stored row with duplicate=true.
	// Failed or stale rows are reopened with Attempts incremented.
	Begin(ctx context.Context, event *Event) (stored *Event, duplicate bool, err error)
	Save(ctx context.Context, event *Event) error
	FindByEventID(ctx context.Context, provider, eventID string) (*Event, error)
}
