package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// StartStoreSpan creates a sentry span around a record store operation.
// Returns nil if Sentry is not available in the context
func StartStoreSpan(ctx context.Context, backend, operation string, params map[string]interface{}) *sentry.Span {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "store."+backend+"."+operation)
	if span != nil {
		span.Description = "store." + backend + "." + operation
		span.Op = "db." + backend

		span.SetData("backend", backend)
		span.SetData("operation", operation)

		for k, v := range params {
			span.SetData(k, v)
		}
	}

	return span
}

// FinishSpan safely finishes a span, handling nil spans
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}

// SetSpanError marks a span as failed and adds error information
func SetSpanError(span *sentry.Span, err error) {
	if span == nil || err == nil {
		return
	}

	span.Status = sentry.SpanStatusInternalError
	span.SetData("error", err.Error())
}

// SetSpanSuccess marks a span as successful
func SetSpanSuccess(span *sentry.Span) {
	if span != nil {
		span.Status = sentry.SpanStatusOK
	}
}
