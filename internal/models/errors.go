package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a card could not be generated
type ErrorKind string

const (
	KindConfigMissing         ErrorKind = "config_missing"
	KindValidationFailed      ErrorKind = "validation_failed"
	KindProviderUnreachable   ErrorKind = "provider_unreachable"
	KindProviderTimeout       ErrorKind = "provider_timeout"
	KindProviderRejected      ErrorKind = "provider_rejected"
	KindProviderEmptyResponse ErrorKind = "provider_empty_response"
)

// GenerationError carries the kind of failure plus diagnostics that stay server side
type GenerationError struct {
	Kind     ErrorKind
	Provider string
	// Details is a bounded diagnostic (e.g. truncated raw provider response)
	Details string
	// Retryable marks transient provider failures (network errors, 5xx, 429)
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	msg := string(e.Kind)
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Details != "" {
		return msg + ": " + e.Details
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError wraps err with a kind
func NewGenerationError(kind ErrorKind, provider string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Provider: provider, Err: err}
}

// KindOf returns the error kind carried by err, or "" for unclassified errors
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return KindValidationFailed
	}
	return ""
}

// IsRetryable reports whether err is a transient provider failure worth one more attempt
func IsRetryable(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Retryable
}

// Truncate bounds s to max characters, marking the cut
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
