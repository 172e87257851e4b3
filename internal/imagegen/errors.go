package imagegen

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// classifyError maps a provider SDK error onto the closed error-kind set.
// Network failures, 429 and 5xx are retryable; other HTTP statuses are not.
func classifyError(ctx context.Context, provider string, err error) *models.GenerationError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.NewGenerationError(models.KindProviderTimeout, provider, err)
	}
	if errors.Is(err, context.Canceled) {
		return models.NewGenerationError(models.KindProviderUnreachable, provider, err)
	}

	if status, ok := statusCode(err); ok {
		genErr := models.NewGenerationError(models.KindProviderRejected, provider, err)
		genErr.Retryable = status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
		return genErr
	}

	genErr := models.NewGenerationError(models.KindProviderUnreachable, provider, err)
	var netErr net.Error
	genErr.Retryable = errors.As(err, &netErr)
	return genErr
}

// statusCode extracts the HTTP status from the SDK error types
func statusCode(err error) (int, bool) {
	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode, true
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Code, true
	}
	return 0, false
}
