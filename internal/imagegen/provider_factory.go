package imagegen

import (
	"context"
	"fmt"
	"net/http"

	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/openai/openai-go/option"
)

// ProviderFactory creates the configured provider with a credential read at call time
type ProviderFactory struct {
	cfg        *config.Config
	httpClient *http.Client
	geminiURL  string
}

// NewProviderFactory creates a new provider factory.
// httpClient may be nil to use the SDK defaults.
func NewProviderFactory(cfg *config.Config, httpClient *http.Client) *ProviderFactory {
	return &ProviderFactory{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

// KeyConfigured reports whether the active provider's credential is present right now
func (f *ProviderFactory) KeyConfigured() bool {
	return f.cfg.ProviderAPIKey() != ""
}

// ProviderName returns the configured provider name
func (f *ProviderFactory) ProviderName() string {
	return f.cfg.ImageProvider
}

// GetProvider returns a provider for the configured backend.
// A missing credential yields a config_missing GenerationError.
func (f *ProviderFactory) GetProvider(ctx context.Context) (Provider, error) {
	apiKey := f.cfg.ProviderAPIKey()
	if apiKey == "" {
		return nil, MissingKeyError(f.cfg)
	}

	switch f.cfg.ImageProvider {
	case config.ProviderOpenAI:
		var opts []option.RequestOption
		if f.cfg.OpenAIBaseURL != "" {
			opts = append(opts, option.WithBaseURL(f.cfg.OpenAIBaseURL))
		}
		if f.httpClient != nil {
			opts = append(opts, option.WithHTTPClient(f.httpClient))
		}
		return NewOpenAIProvider(apiKey, opts...), nil

	case config.ProviderGemini:
		provider, err := NewGeminiProvider(ctx, apiKey, GeminiOptions{
			BaseURL:    f.geminiURL,
			HTTPClient: f.httpClient,
		})
		if err != nil {
			return nil, models.NewGenerationError(models.KindConfigMissing, config.ProviderGemini, err)
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: openai, gemini)", f.cfg.ImageProvider)
	}
}

// MissingKeyError is the config_missing error for the active provider's credential
func MissingKeyError(cfg *config.Config) *models.GenerationError {
	return &models.GenerationError{
		Kind:     models.KindConfigMissing,
		Provider: cfg.ImageProvider,
		Details:  fmt.Sprintf("Missing %s env var.", cfg.ProviderKeyVar()),
	}
}
