package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/notification"
)

// EmailMessageModel is a row of the email outbox
type EmailMessageModel struct {
	BaseModel
	To            string              `gorm:"column:recipient;type:varchar(254);not null"`
	Subject       string              `gorm:"type:varchar(500);not null"`
	Template      string              `gorm:"type:varchar(100);not null"`
	HTMLBody      string              `gorm:"column:html_body;type:text"`
	TextBody      string              `gorm:"type:text"`
	OrderID       *uuid.UUID          `gorm:"type:uuid;index"`
	Status        notification.Status `gorm:"type:varchar(20);not null;index:idx_email_messages_due,priority:1"`
	Attempts      int                 `gorm:"not null;default:0"`
	MaxAttempts   int                 `gorm:"not null"`
	NextAttemptAt time.Time           `gorm:"not null;index:idx_email_messages_due,priority:2"`
	LastError     string              `gorm:"type:text"`
	SentAt        *time.Time
}

// TableName returns the table name for GORM
func (EmailMessageModel) TableName() string {
	return "email_messages"
}

// ToDomain converts the persistence model to a domain Message
func (m *EmailMessageModel) ToDomain() *notification.Message {
	return &notification.Message{
		BaseEntity:    m.BaseModel.ToDomain(),
		To:            m.To,
		Subject:       m.Subject,
		Template:      m.Template,
		HTMLBody:      m.HTMLBody,
		TextBody:      m.TextBody,
		OrderID:       m.OrderID,
		Status:        m.Status,
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		SentAt:        m.SentAt,
	}
}

// EmailMessageModelFromDomain creates a persistence model from a domain Message
func EmailMessageModelFromDomain(msg *notification.Message) *EmailMessageModel {
	m := &EmailMessageModel{
		To:            msg.To,
		Subject:       msg.Subject,
		Template:      msg.Template,
		HTMLBody:      msg.HTMLBody,
		TextBody:      msg.TextBody,
		OrderID:       msg.OrderID,
		Status:        msg.Status,
		Attempts:      msg.Attempts,
		MaxAttempts:   msg.MaxAttempts,
		NextAttemptAt: msg.NextAttemptAt,
		LastError:     msg.LastError,
		SentAt:        msg.SentAt,
	}
	m.FromDomainBaseEntity(msg.BaseEntity)
	return m
}
