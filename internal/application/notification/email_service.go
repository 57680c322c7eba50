package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Email outcomes reported to metrics
const (
	OutcomeQueued = "queued"
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
	OutcomeDead   = "dead"
)

// Config holds outbox delivery settings
type Config struct {
	Policy    notification.RetryPolicy
	BatchSize int
}

// EmailService renders emails into the outbox and delivers them with
// deterministic exponential backoff
type EmailService struct {
	repo     notification.Repository
	renderer notification.Renderer
	sender   notification.Sender
	policy   notification.RetryPolicy
	batch    int
	logger   *zap.Logger
	metrics  *telemetry.ShopMetrics
	now      func() time.Time
}

// NewEmailService creates a new EmailService
func NewEmailService(
	repo notification.Repository,
	renderer notification.Renderer,
	sender notification.Sender,
	cfg Config,
	logger *zap.Logger,
) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := cfg.Policy
	defaults := notification.DefaultRetryPolicy()
	if policy.Base <= 0 {
		policy.Base = defaults.Base
	}
	if policy.Cap <= 0 {
		policy.Cap = defaults.Cap
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaults.MaxAttempts
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	return &EmailService{
		repo:     repo,
		renderer: renderer,
		sender:   sender,
		policy:   policy,
		batch:    batch,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *EmailService) SetMetrics(m *telemetry.ShopMetrics) {
	s.metrics = m
}

// Enqueue renders template with data and stores the message as PENDING,
// due immediately
func (s *EmailService) Enqueue(ctx context.Context, template, to string, data any, orderID *uuid.UUID) (*EmailResponse, error) {
	body, err := s.renderer.Render(template, data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", template, err)
	}
	msg, err := notification.NewMessage(to, body.Subject, template, body, orderID, s.policy.MaxAttempts)
	if err != nil {
		return nil, err
	}
	msg.NextAttemptAt = s.now()
	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	s.metrics.RecordEmail(ctx, OutcomeQueued)
	s.logger.Debug("Email queued",
		zap.String("message_id", msg.ID.String()),
		zap.String("template", template))
	response := ToEmailResponse(msg)
	return &response, nil
}

// DispatchDue sends PENDING and FAILED messages whose next attempt is due.
// Send errors are recorded on the message, so only storage errors fail the run.
func (s *EmailService) DispatchDue(ctx context.Context, limit int) (result *DispatchResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "notification", "DispatchDue")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if limit <= 0 {
		limit = s.batch
	}
	now := s.now()
	due, err := s.repo.FindDue(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due emails: %w", err)
	}

	result = &DispatchResult{}
	for i := range due {
		msg := &due[i]
		if !msg.IsDue(now) {
			continue
		}
		result.Checked++

		sendErr := s.sender.Send(ctx, msg)
		outcome := OutcomeSent
		if sendErr == nil {
			msg.MarkSent(s.now())
			result.Sent++
		} else {
			msg.MarkFailed(sendErr, s.now(), s.policy)
			outcome = OutcomeFailed
			if msg.Status == notification.StatusDead {
				outcome = OutcomeDead
				result.Dead++
				s.logger.Error("Email given up",
					zap.String("message_id", msg.ID.String()),
					zap.String("template", msg.Template),
					zap.Int("attempts", msg.Attempts),
					zap.Bool("permanent", notification.IsPermanent(sendErr)),
					zap.Error(sendErr))
			} else {
				result.Failed++
				s.logger.Warn("Email delivery failed, will retry",
					zap.String("message_id", msg.ID.String()),
					zap.Int("attempts", msg.Attempts),
					zap.Time("next_attempt_at", msg.NextAttemptAt),
					zap.Error(sendErr))
			}
		}

		if err := s.repo.Save(ctx, msg); err != nil {
			return result, fmt.Errorf("save email %s: %w", msg.ID, err)
		}
		s.metrics.RecordEmail(ctx, outcome)
	}

	telemetry.SetAttributes(span, "emails.sent", result.Sent, "emails.failed", result.Failed, "emails.dead", result.Dead)
	return result, nil
}

// List retrieves a page of outbox messages, optionally by status
func (s *EmailService) List(ctx context.Context, filter EmailListFilter) ([]EmailResponse, int64, error) {
	base := shared.DefaultFilter()
	base.Page = filter.Page
	base.PageSize = filter.PageSize

	var status *notification.Status
	if filter.Status != "" {
		st := notification.Status(strings.ToUpper(filter.Status))
		if !st.IsValid() {
			return nil, 0, shared.ErrInvalidInput.Withf("invalid email status %q", filter.Status)
		}
		status = &st
	}

	msgs, total, err := s.repo.List(ctx, status, base.Normalize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]EmailResponse, len(msgs))
	for i := range msgs {
		out[i] = ToEmailResponse(&msgs[i])
	}
	return out, total, nil
}

// Retry requeues a FAILED or DEAD message for immediate delivery
func (s *EmailService) Retry(ctx context.Context, id uuid.UUID) (*EmailResponse, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := msg.Requeue(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}
	s.logger.Info("Email requeued", zap.String("message_id", msg.ID.String()))
	response := ToEmailResponse(msg)
	return &response, nil
}
