package webhook

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/webhook"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// Outcomes reported to metrics
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// ProcessingError reports that a verified event could not be applied. The
// event is left for redelivery, so transports answer with a 5xx.
type ProcessingError struct {
	EventID string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("process webhook event %s: %v", e.EventID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Processor runs provider notifications exactly once per (provider, event id).
// The dedup row is claimed before the handler runs and finished afterwards,
// so a handler error leaves the event FAILED for the provider's next delivery.
type Processor struct {
	repo    webhook.Repository
	logger  *zap.Logger
	metrics *telemetry.ShopMetrics
}

// NewProcessor creates a new Processor
func NewProcessor(repo webhook.Repository, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{repo: repo, logger: logger}
}

// SetMetrics sets the business metrics recorder
func (p *Processor) SetMetrics(m *telemetry.ShopMetrics) {
	p.metrics = m
}

// Process claims the event and runs handle unless it is a duplicate
func (p *Processor) Process(
	ctx context.Context,
	provider, eventID, eventType string,
	payload []byte,
	handle func(ctx context.Context) error,
) (duplicate bool, err error) {
	event, err := webhook.NewEvent(provider, eventID, eventType, payload)
	if err != nil {
		return false, err
	}

	stored, duplicate, err := p.repo.Begin(ctx, event)
	if err != nil {
		return false, &ProcessingError{EventID: eventID, Err: fmt.Errorf("claim: %w", err)}
	}
	if duplicate {
		p.logger.Debug("Skipping duplicate webhook",
			zap.String("provider", provider),
			zap.String("event_id", eventID),
			zap.String("status", string(stored.Status)))
		p.metrics.RecordWebhook(ctx, provider, OutcomeDuplicate)
		return true, nil
	}

	if handleErr := handle(ctx); handleErr != nil {
		stored.Fail(handleErr)
		if err := p.repo.Save(ctx, stored); err != nil {
			p.logger.Error("Failed to record webhook failure",
				zap.String("provider", provider),
				zap.String("event_id", eventID),
				zap.Error(err))
		}
		p.logger.Warn("Webhook processing failed",
			zap.String("provider", provider),
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Int("attempts", stored.Attempts),
			zap.Error(handleErr))
		p.metrics.RecordWebhook(ctx, provider, OutcomeFailed)
		return false, &ProcessingError{EventID: eventID, Err: handleErr}
	}

	stored.Complete()
	if err := p.repo.Save(ctx, stored); err != nil {
		// Handlers are idempotent, so the redelivery this causes is harmless.
		p.metrics.RecordWebhook(ctx, provider, OutcomeFailed)
		return false, &ProcessingError{EventID: eventID, Err: fmt.Errorf("complete: %w", err)}
	}
	p.metrics.RecordWebhook(ctx, provider, OutcomeProcessed)
	return false, nil
}
