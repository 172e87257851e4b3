package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/logger"
	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const providerNameGemini = "gemini"

// Imagen takes an aspect ratio instead of pixel dimensions
var geminiAspectRatios = map[string]string{
	"1024x1024": "1:1",
	"1024x1536": "3:4",
	"1024x1792": "9:16",
}

// GeminiProvider implements the Provider interface using Imagen through the Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// GeminiOptions overrides transport settings, mainly for tests
type GeminiOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = opts.BaseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate requests a single image from Imagen
func (p *GeminiProvider) Generate(ctx context.Context, request *ImageRequest) (*ImageResponse, error) {
	transaction := sentry.StartTransaction(ctx, "gemini.images.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("size", request.Size)

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatioFor(request.Size),
	}

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateImages(ctx, request.Model, request.Prompt, config)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		transaction.SetTag("success", "false")
		genErr := classifyError(ctx, providerNameGemini, err)
		logger.Warn("gemini image request failed", logger.Fields{
			"provider":    providerNameGemini,
			"duration_ms": apiDuration.Milliseconds(),
			"error_kind":  string(genErr.Kind),
			"retryable":   genErr.Retryable,
			"error":       err.Error(),
		})
		return nil, genErr
	}

	logger.Debug("gemini image request completed", logger.Fields{
		"provider":    providerNameGemini,
		"model":       request.Model,
		"duration_ms": apiDuration.Milliseconds(),
	})

	transaction.SetTag("success", "true")
	return p.processResponse(result), nil
}

func (p *GeminiProvider) processResponse(result *genai.GenerateImagesResponse) *ImageResponse {
	out := &ImageResponse{}
	if result == nil {
		return out
	}

	for _, generated := range result.GeneratedImages {
		if generated == nil {
			continue
		}
		// Filtered entries carry a reason but no image
		if generated.RAIFilteredReason != "" {
			out.Raw = "filtered: " + generated.RAIFilteredReason
		}
		if generated.Image != nil && len(generated.Image.ImageBytes) > 0 {
			out.Data = generated.Image.ImageBytes
			out.MIMEType = generated.Image.MIMEType
			return out
		}
	}
	return out
}

func aspectRatioFor(size string) string {
	if ratio, ok := geminiAspectRatios[size]; ok {
		return ratio
	}
	return geminiAspectRatios["1024x1536"]
}
