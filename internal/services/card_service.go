package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/airplanegirl/cards-for-care-api/internal/imagegen"
	"github.com/airplanegirl/cards-for-care-api/internal/logger"
	"github.com/airplanegirl/cards-for-care-api/internal/metrics"
	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/airplanegirl/cards-for-care-api/internal/observability"
	"github.com/airplanegirl/cards-for-care-api/internal/prompt"
	"github.com/cenkalti/backoff/v4"
)

// maxRawDetails bounds the raw provider response kept on an empty-response error
const maxRawDetails = 600

// ProviderSource hands out the configured image provider
type ProviderSource interface {
	GetProvider(ctx context.Context) (imagegen.Provider, error)
}

// ImageParameters are the per-deployment settings sent with every image request
type ImageParameters struct {
	Model string
	Size  string
}

// GetImageParameters derives the image request settings from configuration
func GetImageParameters(cfg *config.Config) ImageParameters {
	return ImageParameters{
		Model: cfg.ImageModel,
		Size:  cfg.ImageSize,
	}
}

// CardService turns a validated card request into an image
type CardService struct {
	cfg       *config.Config
	params    ImageParameters
	providers ProviderSource
	fetcher   imagegen.ImageFetcher
	builder   *prompt.Builder
	metrics   *metrics.Recorder
	langfuse  *observability.LangfuseClient
}

// NewCardService creates a card service. recorder and langfuse may be nil.
func NewCardService(
	cfg *config.Config,
	providers ProviderSource,
	fetcher imagegen.ImageFetcher,
	recorder *metrics.Recorder,
	langfuse *observability.LangfuseClient,
) *CardService {
	if langfuse == nil {
		langfuse = observability.Disabled()
	}
	return &CardService{
		cfg:       cfg,
		params:    GetImageParameters(cfg),
		providers: providers,
		fetcher:   fetcher,
		builder:   prompt.NewPromptBuilder(),
		metrics:   recorder,
		langfuse:  langfuse,
	}
}

// Generate builds the prompt, calls the provider with a deadline and bounded retry,
// and normalizes the response into a GenerationResult.
func (s *CardService) Generate(ctx context.Context, req models.CardRequest) (models.GenerationResult, error) {
	cardPrompt, err := s.builder.Build(req)
	if err != nil {
		return models.GenerationResult{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	provider, err := s.providers.GetProvider(ctx)
	if err != nil {
		return models.GenerationResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	startTime := time.Now()
	event := metrics.GenerationEvent{Provider: provider.Name(), Model: s.params.Model}

	trace := s.langfuse.StartTrace(ctx, "card-generation", map[string]interface{}{
		"card_type": req.CardType(),
		"who_for":   req.WhoFor(),
		"theme":     req.Theme(),
		"vibe":      req.Vibe(),
	})
	defer trace.Finish()
	generation := trace.Generation("image", map[string]interface{}{"provider": provider.Name()})
	defer generation.Finish()

	resp, attempts, err := s.generateWithRetry(ctx, provider, &imagegen.ImageRequest{
		Prompt: cardPrompt,
		Model:  s.params.Model,
		Size:   s.params.Size,
	})
	event.Attempts = attempts

	var result models.GenerationResult
	if err == nil {
		if resp.Usage != nil {
			event.InputTokens = resp.Usage.InputTokens
			event.OutputTokens = resp.Usage.OutputTokens
			event.TotalTokens = resp.Usage.TotalTokens
		}
		generation.LogImageGeneration(s.params.Model, s.params.Size, cardPrompt, resp.Usage, map[string]interface{}{
			"attempts": attempts,
		})
		result, err = s.normalize(ctx, provider.Name(), resp)
	}
	event.Duration = time.Since(startTime)

	if err != nil {
		err = timeoutAware(ctx, provider.Name(), err)
		event.ErrorKind = string(models.KindOf(err))
		generation.SetLevel("ERROR")
		generation.Metadata(map[string]interface{}{"error_kind": event.ErrorKind})
		s.metrics.RecordGeneration(ctx, event)
		return models.GenerationResult{}, err
	}

	event.ResultKind = string(result.Kind)
	generation.Output(map[string]interface{}{"result_kind": event.ResultKind})
	s.metrics.RecordGeneration(ctx, event)

	logger.Info("Card generated", logger.Fields{
		"provider":    provider.Name(),
		"model":       s.params.Model,
		"attempts":    attempts,
		"result_kind": event.ResultKind,
		"duration_ms": event.Duration.Milliseconds(),
	})
	return result, nil
}

// generateWithRetry calls the provider, retrying transient failures with exponential backoff
func (s *CardService) generateWithRetry(
	ctx context.Context, provider imagegen.Provider, request *imagegen.ImageRequest,
) (*imagegen.ImageResponse, int, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.cfg.RetryBackoff
	expBackoff.MaxElapsedTime = 0 // the request deadline bounds retries

	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(s.cfg.ProviderMaxRetries)),
		ctx,
	)

	var (
		resp     *imagegen.ImageResponse
		attempts int
	)
	operation := func() error {
		attempts++
		r, err := provider.Generate(ctx, request)
		if err != nil {
			if models.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Retrying image provider after transient failure", logger.Fields{
			"provider":   provider.Name(),
			"attempt":    attempts,
			"wait_ms":    wait.Milliseconds(),
			"error_kind": string(models.KindOf(err)),
			"error":      err.Error(),
		})
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, attempts, err
	}
	return resp, attempts, nil
}

// normalize converts a provider response into inline or remote form according to the remote image policy
func (s *CardService) normalize(ctx context.Context, providerName string, resp *imagegen.ImageResponse) (models.GenerationResult, error) {
	switch {
	case resp.HasInline():
		mimeType := resp.MIMEType
		if resp.B64 != "" {
			if mimeType == "" {
				mimeType = sniffBase64(resp.B64)
			}
			return models.InlineResultFromBase64(mimeType, resp.B64), nil
		}
		if mimeType == "" {
			mimeType = imagegen.DetectImageMIME(resp.Data, "")
		}
		return models.InlineResult(mimeType, resp.Data), nil

	case resp.HasURL():
		if s.cfg.RemoteImagePolicy == config.RemotePolicyPassthrough {
			return models.RemoteResult(resp.URL), nil
		}
		data, mimeType, err := s.fetcher.Fetch(ctx, resp.URL)
		if err != nil {
			return models.GenerationResult{}, err
		}
		return models.InlineResult(mimeType, data), nil

	default:
		raw := resp.Raw
		if raw == "" {
			raw = "{}"
		}
		return models.GenerationResult{}, &models.GenerationError{
			Kind:     models.KindProviderEmptyResponse,
			Provider: providerName,
			Details:  models.Truncate(raw, maxRawDetails),
		}
	}
}

// sniffBase64 detects the image type from the decoded payload, or "" to fall back to the default
func sniffBase64(b64 string) string {
	// 512 bytes is all content sniffing looks at
	head := b64
	if len(head) > 700 {
		head = head[:700]
	}
	data, err := base64.StdEncoding.DecodeString(head[:len(head)/4*4])
	if err != nil {
		return ""
	}
	return imagegen.DetectImageMIME(data, "")
}

// timeoutAware reclassifies errors surfaced after the request deadline expired
func timeoutAware(ctx context.Context, providerName string, err error) error {
	if models.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.NewGenerationError(models.KindProviderTimeout, providerName, err)
	}
	if errors.Is(err, context.Canceled) {
		return models.NewGenerationError(models.KindProviderUnreachable, providerName, err)
	}
	return err
}
