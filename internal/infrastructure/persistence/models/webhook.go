package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/webhook"
)

// WebhookEventModel is the dedup row of a received provider notification
type WebhookEventModel struct {
	BaseModel
	Provider    string         `gorm:"type:varchar(30);not null;uniqueIndex:idx_webhook_events_provider_event,priority:1"`
	EventID     string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_webhook_events_provider_event,priority:2"`
	EventType   string         `gorm:"type:varchar(100);not null"`
	Status      webhook.Status `gorm:"type:varchar(20);not null;index"`
	Attempts    int            `gorm:"not null;default:1"`
	LastError   string         `gorm:"type:text"`
	Payload     []byte
	ReceivedAt  time.Time `gorm:"not null"`
	ProcessedAt *time.Time
}

// TableName returns the table name for GORM
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToDomain converts the persistence model to a domain webhook Event
func (m *WebhookEventModel) ToDomain() *webhook.Event {
	return &webhook.Event{
		BaseEntity:  m.BaseModel.ToDomain(),
		Provider:    m.Provider,
		EventID:     m.EventID,
		EventType:   m.EventType,
		Status:      m.Status,
		Attempts:    m.Attempts,
		LastError:   m.LastError,
		Payload:     m.Payload,
		ReceivedAt:  m.ReceivedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

// WebhookEventModelFromDomain creates a persistence model from a domain webhook Event
func WebhookEventModelFromDomain(e *webhook.Event) *WebhookEventModel {
	m := &WebhookEventModel{
		Provider:    e.Provider,
		EventID:     e.EventID,
		EventType:   e.EventType,
		Status:      e.Status,
		Attempts:    e.Attempts,
		LastError:   e.LastError,
		Payload:     e.Payload,
		ReceivedAt:  e.ReceivedAt,
		ProcessedAt: e.ProcessedAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
