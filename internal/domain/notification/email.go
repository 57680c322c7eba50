package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status is the delivery status of an email
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
	StatusDead    Status = "DEAD"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusDead:
		return true
	}
	return false
}

// Retry defaults
const (
	DefaultBackoffBase = 30 * time.Second
	DefaultBackoffCap  = time.Hour
	DefaultMaxAttempts = 6
)

const maxErrorLength = 1000

// Backoff returns the delay before the attempt following the n-th failure:
// min(base * 2^(n-1), ceiling). It is deterministic.
func Backoff(n int, base, ceiling time.Duration) time.Duration {
	if n < 1 {
		return 0
	}
	delay := base
	for i := 1; i < n; i++ {
		if delay >= ceiling/2 {
			return ceiling
		}
		delay *= 2
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}

// RetryPolicy controls redelivery of failed emails
type RetryPolicy struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Base: DefaultBackoffBase, Cap: DefaultBackoffCap, MaxAttempts: DefaultMaxAttempts}
}

// Message is an outgoing email in the delivery outbox
type Message struct {
	shared.BaseEntity
	To            string
	Subject       string
	Template      string
	HTMLBody      string
	TextBody      string
	OrderID       *uuid.UUID
	Status        Status
	Attempts      int
	MaxAttempts   int
	NextAttemptAt time.Time
	LastError     string
	SentAt        *time.Time
}

// NewMessage creates a message due immediately
func NewMessage(to, subject, template string, body Rendered, orderID *uuid.UUID, maxAttempts int) (*Message, error) {
	addr, err := shared.NormalizeEmail(to)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(subject) == "" {
		return nil, shared.ErrInvalidInput.Withf("email subject cannot be empty")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	base := shared.NewBaseEntity()
	return &Message{
		BaseEntity:    base,
		To:            addr,
		Subject:       subject,
		Template:      template,
		HTMLBody:      body.HTML,
		TextBody:      body.Text,
		OrderID:       orderID,
		Status:        StatusPending,
		MaxAttempts:   maxAttempts,
		NextAttemptAt: base.CreatedAt,
	}, nil
}

// IsDue reports whether the message should be sent at now
func (m *Message) IsDue(now time.Time) bool {
	return (m.Status == StatusPending || m.Status == StatusFailed) && !m.NextAttemptAt.After(now)
}

// MarkSent records a successful delivery
func (m *Message) MarkSent(now time.Time) {
	m.Attempts++
	m.Status = StatusSent
	m.LastError = ""
	m.SentAt = &now
	m.UpdatedAt = now
}

// MarkFailed records a failed delivery and schedules the next attempt.
// Permanent errors and exhausted attempts make the message DEAD.
func (m *Message) MarkFailed(err error, now time.Time, policy RetryPolicy) {
	m.Attempts++
	msg := shared.Truncate(err.Error(), maxErrorLength)
	m.LastError = msg
	m.UpdatedAt = now

	if IsPermanent(err) || m.Attempts >= m.MaxAttempts {
		m.Status = StatusDead
		return
	}
	m.Status = StatusFailed
	m.NextAttemptAt = now.Add(Backoff(m.Attempts, policy.Base, policy.Cap))
}

// Requeue resets a dead or failed message for immediate delivery
func (m *Message) Requeue(now time.Time) error {
	if m.Status != StatusDead && m.Status != StatusFailed {
		return shared.ErrInvalidState.Withf("only failed or dead emails can be retried")
	}
	m.Status = StatusPending
	m.Attempts = 0
	m.NextAttemptAt = now
	m.UpdatedAt = now
	return nil
}

// Rendered is the output of a template render
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns a named template and data into an email body
type Renderer interface {
	Render(template string, data any) (Rendered, error)
}

// Sender is the port to the email provider
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// PermanentError marks a provider rejection that retrying cannot fix
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err is a PermanentError
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// IsPermanentStatus classifies provider HTTP statuses. Client errors are
// permanent except timeouts and throttling.
func IsPermanentStatus(code int) bool {
	return code >= 400 && code < 500 && code != 408 && code != 429
}

// Repository defines the interface for email outbox persistence
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Message, error)
	List(ctx context.Context, status *Status, filter shared.Filter) ([]Message, int64, error)
	Save(ctx context.Context, msg *Message) error
	// FindDue returns PENDING or FAILED messages with NextAttemptAt <= now, oldest first
	FindDue(ctx context.Context, now time.Time, limit int) ([]Message, error)
}
