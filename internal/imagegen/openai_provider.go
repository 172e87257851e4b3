package imagegen

import (
	"context"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/logger"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerNameOpenAI = "openai"

var openAIOutputMIME = map[openai.ImagesResponseOutputFormat]string{
	openai.ImagesResponseOutputFormatPNG:  "image/png",
	openai.ImagesResponseOutputFormatJPEG: "image/jpeg",
	openai.ImagesResponseOutputFormatWebP: "image/webp",
}

// OpenAIProvider implements the Provider interface using OpenAI's Images API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
// SDK retries are disabled; the card service owns the retry policy.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIProvider{client: &client}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate requests a single image from the Images API
func (p *OpenAIProvider) Generate(ctx context.Context, request *ImageRequest) (*ImageResponse, error) {
	transaction := sentry.StartTransaction(ctx, "openai.images.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("size", request.Size)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Images.Generate(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		transaction.SetTag("success", "false")
		genErr := classifyError(ctx, providerNameOpenAI, err)
		logger.Warn("openai image request failed", logger.Fields{
			"provider":    providerNameOpenAI,
			"duration_ms": apiDuration.Milliseconds(),
			"error_kind":  string(genErr.Kind),
			"retryable":   genErr.Retryable,
			"error":       err.Error(),
		})
		return nil, genErr
	}

	logger.Debug("openai image request completed", logger.Fields{
		"provider":    providerNameOpenAI,
		"model":       request.Model,
		"duration_ms": apiDuration.Milliseconds(),
		"images":      len(resp.Data),
	})

	transaction.SetTag("success", "true")
	return p.processResponse(resp), nil
}

func (p *OpenAIProvider) buildRequestParams(request *ImageRequest) openai.ImageGenerateParams {
	params := openai.ImageGenerateParams{
		Prompt: request.Prompt,
		N:      openai.Int(1),
	}
	if request.Model != "" {
		params.Model = openai.ImageModel(request.Model)
	}
	if request.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(request.Size)
	}
	return params
}

func (p *OpenAIProvider) processResponse(resp *openai.ImagesResponse) *ImageResponse {
	out := &ImageResponse{
		Raw:      resp.RawJSON(),
		MIMEType: openAIOutputMIME[resp.OutputFormat],
	}

	if resp.JSON.Usage.Valid() {
		out.Usage = &Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}

	if len(resp.Data) > 0 {
		out.B64 = resp.Data[0].B64JSON
		out.URL = resp.Data[0].URL
	}
	return out
}
