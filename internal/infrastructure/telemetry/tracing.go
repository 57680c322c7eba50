package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storefront/backend/internal/domain/shared"
)

const instrumentationName = "github.com/storefront/backend"

// StartServiceSpan starts an internal span named "<service>.<operation>".
// attrs are alternating keys and values.
func StartServiceSpan(ctx context.Context, service, operation string, attrs ...any) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, service+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("service.component", service))
	SetAttributes(span, attrs...)
	return ctx, span
}

// SetAttributes sets alternating key/value pairs on span. A trailing key
// without a value is ignored.
func SetAttributes(span trace.Span, kv ...any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		span.SetAttributes(toAttribute(key, kv[i+1]))
	}
}

// RecordError marks span as failed. Not-found and invalid-input domain
// errors are client outcomes and leave the status unset.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	var de *shared.DomainError
	if errors.As(err, &de) && (de.Code == shared.ErrNotFound.Code || de.Code == shared.ErrInvalidInput.Code) {
		span.SetAttributes(attribute.String("error.code", de.Code))
		return
	}
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the hex trace ID in ctx, or "" without a valid span
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case float64:
		return attribute.Float64(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
