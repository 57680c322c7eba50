package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/notification"
)

// EmailListFilter represents query parameters of the email outbox listing
type EmailListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// EmailResponse represents an outbox message in API responses. Bodies are
// left out of listings.
type EmailResponse struct {
	ID            uuid.UUID  `json:"id"`
	To            string     `json:"to"`
	Subject       string     `json:"subject"`
	Template      string     `json:"template"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	LastError     string     `json:"last_error,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToEmailResponse converts a domain Message to EmailResponse
func ToEmailResponse(m *notification.Message) EmailResponse {
	return EmailResponse{
		ID:            m.ID,
		To:            m.To,
		Subject:       m.Subject,
		Template:      m.Template,
		OrderID:       m.OrderID,
		Status:        string(m.Status),
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		SentAt:        m.SentAt,
		CreatedAt:     m.CreatedAt,
	}
}

// DispatchResult summarizes one outbox dispatch run
type DispatchResult struct {
	Checked int `json:"checked"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Dead    int `json:"dead"`
}
