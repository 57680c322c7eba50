package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/storefront/backend/internal/domain/shared"
)

// Histogram buckets in seconds
var (
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	JobDurationBuckets  = []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300}
)

// ShopMetrics holds the storefront's business and HTTP instruments. A nil
// *ShopMetrics is valid and records nothing.
type ShopMetrics struct {
	domainEvents    metric.Int64Counter
	webhooks        metric.Int64Counter
	emails          metric.Int64Counter
	orphans         metric.Int64Counter
	refunds         metric.Int64Counter
	jobDuration     metric.Float64Histogram
	httpRequests    metric.Int64Counter
	httpDuration    metric.Float64Histogram
	httpActiveCount metric.Int64UpDownCounter
}

// NewShopMetrics creates instruments on meter, or on the global meter when nil
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	m := &ShopMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.domainEvents, "storefront_domain_events_total", "Domain events published, by type"},
		{&m.webhooks, "storefront_webhooks_total", "Webhooks received, by provider and outcome"},
		{&m.emails, "storefront_emails_total", "Email delivery attempts, by outcome"},
		{&m.orphans, "storefront_orphan_payments_total", "Orphan payments detected, by reason"},
		{&m.refunds, "storefront_refunds_total", "Refunds issued, by source"},
		{&m.httpRequests, "http_server_request_total", "HTTP requests served"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("telemetry: counter %s: %w", c.name, err)
		}
	}

	if m.jobDuration, err = meter.Float64Histogram("storefront_job_duration_seconds",
		metric.WithDescription("Background job run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(JobDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("telemetry: job duration histogram: %w", err)
	}
	if m.httpDuration, err = meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(HTTPDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("telemetry: http duration histogram: %w", err)
	}
	if m.httpActiveCount, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("In-flight HTTP requests")); err != nil {
		return nil, fmt.Errorf("telemetry: active requests counter: %w", err)
	}
	return m, nil
}

// RecordWebhook counts a webhook by provider and outcome
// (processed, duplicate, ignored, invalid_signature, failed)
func (m *ShopMetrics) RecordWebhook(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome)))
}

// RecordEmail counts one delivery attempt (sent, retry, dead)
func (m *ShopMetrics) RecordEmail(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.emails.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordOrphan counts a newly detected orphan payment
func (m *ShopMetrics) RecordOrphan(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.orphans.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRefund counts a refund issued through the gateway
func (m *ShopMetrics) RecordRefund(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.refunds.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordJob records a background job run
func (m *ShopMetrics) RecordJob(ctx context.Context, job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.jobDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("status", status)))
}

// HTTPRequestStarted increments the in-flight gauge
func (m *ShopMetrics) HTTPRequestStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.httpActiveCount.Add(ctx, 1)
}

// HTTPRequestFinished records a completed request. route is the gin
// route template, not the raw path, to bound cardinality.
func (m *ShopMetrics) HTTPRequestFinished(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status))
	m.httpActiveCount.Add(ctx, -1)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, d.Seconds(), attrs)
}

// Handle counts every domain event; subscribe it to the bus as catch-all
func (m *ShopMetrics) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if m == nil {
		return nil
	}
	m.domainEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", evt.EventType())))
	return nil
}

// EventTypes returns nil: every event
func (m *ShopMetrics) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*ShopMetrics)(nil)

// RegisterDBPoolMetrics observes database/sql pool statistics on every
// collection cycle
func RegisterDBPoolMetrics(meter metric.Meter, db *sql.DB) error {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	open, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"))
	if err != nil {
		return fmt.Errorf("telemetry: db pool gauge: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"))
	if err != nil {
		return fmt.Errorf("telemetry: db pool max gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"))
	if err != nil {
		return fmt.Errorf("telemetry: db pool wait counter: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		s := db.Stats()
		o.ObserveInt64(open, int64(s.InUse), metric.WithAttributes(attribute.String("state", "in_use")))
		o.ObserveInt64(open, int64(s.Idle), metric.WithAttributes(attribute.String("state", "idle")))
		o.ObserveInt64(maxOpen, int64(s.MaxOpenConnections))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, open, maxOpen, waits)
	if err != nil {
		return fmt.Errorf("telemetry: db pool callback: %w", err)
	}
	return nil
}
