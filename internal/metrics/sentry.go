package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration records one card generation as a span, tagging the enclosing transaction with token usage
func (m *SentryMetrics) RecordGeneration(ctx context.Context, event GenerationEvent) {
	if m == nil || !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil && event.TotalTokens > 0 {
		transaction.SetTag("image.model", event.Model)
		transaction.SetData("image.total_tokens", event.TotalTokens)
		transaction.SetData("image.input_tokens", event.InputTokens)
		transaction.SetData("image.output_tokens", event.OutputTokens)
	}

	span := sentry.StartSpan(ctx, "card.generation")
	defer span.Finish()

	span.SetTag("provider", event.Provider)
	span.SetTag("model", event.Model)
	span.SetTag("outcome", event.Outcome())
	span.SetTag("success", fmt.Sprintf("%t", event.Success()))

	span.SetData("duration_ms", event.Duration.Milliseconds())
	span.SetData("attempts", event.Attempts)
	if event.ResultKind != "" {
		span.SetData("result_kind", event.ResultKind)
	}

	if event.Success() {
		span.Status = sentry.SpanStatusOK
	} else if event.ErrorKind == "provider_timeout" {
		span.Status = sentry.SpanStatusDeadlineExceeded
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Card Generation: %s", event.Outcome())
}
