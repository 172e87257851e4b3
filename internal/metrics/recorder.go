package metrics

import (
	"context"
	"time"
)

// GenerationEvent describes one card generation for metrics
type GenerationEvent struct {
	Provider     string
	Model        string
	Duration     time.Duration
	Attempts     int
	ErrorKind    string // empty on success
	ResultKind   string // "inline" or "remote" on success
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Success reports whether the generation produced an image
func (e GenerationEvent) Success() bool {
	return e.ErrorKind == ""
}

// Outcome is "success" or the error kind
func (e GenerationEvent) Outcome() string {
	if e.Success() {
		return "success"
	}
	return e.ErrorKind
}

// Recorder fans metrics out to Sentry and CloudWatch. A nil Recorder is a no-op.
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder creates a recorder; either sink may be nil
func NewRecorder(sentryMetrics *SentryMetrics, cloudwatchClient *Client) *Recorder {
	return &Recorder{
		sentry:     sentryMetrics,
		cloudwatch: cloudwatchClient,
	}
}

// RecordAPIRequest records an HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
}

// RecordGeneration records a card generation
func (r *Recorder) RecordGeneration(ctx context.Context, event GenerationEvent) {
	if r == nil {
		return
	}
	r.sentry.RecordGeneration(ctx, event)
	r.cloudwatch.RecordGeneration(event)
}
