package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Remote image policies
const (
	// RemotePolicyInline fetches provider-hosted images and returns them as data URIs
	RemotePolicyInline = "inline"
	// RemotePolicyPassthrough returns provider-hosted URLs to the caller unchanged
	RemotePolicyPassthrough = "passthrough"
)

// Image providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	defaultProviderTimeout = 60 * time.Second
	defaultRetryBackoff    = 500 * time.Millisecond
	defaultMaxRetries      = 1
	defaultRemoteMaxBytes  = 20 << 20
)

var allowedSizes = map[string]bool{
	"1024x1536": true,
	"1024x1792": true,
	"1024x1024": true,
}

// Config holds the application configuration.
// Provider credentials are not stored here; they are read from the environment
// on every request (see OpenAIAPIKey/GeminiAPIKey).
type Config struct {
	// Environment
	Environment string
	Port        string
	LogLevel    slog.Level

	// Image provider
	ImageProvider      string
	ImageModel         string
	ImageSize          string
	OpenAIBaseURL      string
	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	RetryBackoff       time.Duration

	// Response normalization
	RemoteImagePolicy   string
	RemoteImageMaxBytes int64

	// Front-end
	AllowedOrigins  []string
	CardOptionsFile string

	// Observability
	SentryDSN         string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool
}

// DefaultAllowedOrigins are the front-end origins permitted to call the API
var DefaultAllowedOrigins = []string{
	"https://airplanegirl.com",
	"https://www.airplanegirl.com",
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		ImageProvider:       strings.ToLower(getEnv("IMAGE_PROVIDER", ProviderOpenAI)),
		ImageSize:           getEnv("IMAGE_SIZE", "1024x1536"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		ProviderTimeout:     defaultProviderTimeout,
		ProviderMaxRetries:  defaultMaxRetries,
		RetryBackoff:        defaultRetryBackoff,
		RemoteImagePolicy:   strings.ToLower(getEnv("REMOTE_IMAGE_POLICY", RemotePolicyInline)),
		RemoteImageMaxBytes: defaultRemoteMaxBytes,
		AllowedOrigins:      parseList(getEnv("ALLOWED_ORIGINS", ""), DefaultAllowedOrigins),
		CardOptionsFile:     getEnv("CARD_OPTIONS_FILE", ""),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:   getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:   getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:        getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:     getEnv("LANGFUSE_ENABLED", "false") == "true",
	}

	switch cfg.ImageProvider {
	case ProviderOpenAI:
		cfg.ImageModel = getEnv("IMAGE_MODEL", "gpt-image-1")
	case ProviderGemini:
		cfg.ImageModel = getEnv("IMAGE_MODEL", "imagen-3.0-generate-002")
	default:
		return nil, fmt.Errorf("invalid IMAGE_PROVIDER %q (allowed: openai, gemini)", cfg.ImageProvider)
	}

	if !allowedSizes[cfg.ImageSize] {
		return nil, fmt.Errorf("invalid IMAGE_SIZE %q (allowed: 1024x1536, 1024x1792, 1024x1024)", cfg.ImageSize)
	}

	if cfg.RemoteImagePolicy != RemotePolicyInline && cfg.RemoteImagePolicy != RemotePolicyPassthrough {
		return nil, fmt.Errorf("invalid REMOTE_IMAGE_POLICY %q (allowed: inline, passthrough)", cfg.RemoteImagePolicy)
	}

	var err error
	if cfg.ProviderTimeout, err = getDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = getDuration("PROVIDER_RETRY_BACKOFF", cfg.RetryBackoff); err != nil {
		return nil, err
	}
	if cfg.ProviderMaxRetries, err = getInt("PROVIDER_MAX_RETRIES", cfg.ProviderMaxRetries); err != nil {
		return nil, err
	}
	if cfg.ProviderMaxRetries < 0 {
		return nil, fmt.Errorf("invalid PROVIDER_MAX_RETRIES %d: must not be negative", cfg.ProviderMaxRetries)
	}
	maxBytes, err := getInt("REMOTE_IMAGE_MAX_BYTES", int(cfg.RemoteImageMaxBytes))
	if err != nil {
		return nil, err
	}
	cfg.RemoteImageMaxBytes = int64(maxBytes)

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OpenAIAPIKey reads the OpenAI credential at call time
func (c *Config) OpenAIAPIKey() string {
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

// GeminiAPIKey reads the Gemini credential at call time
func (c *Config) GeminiAPIKey() string {
	return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
}

// ProviderKeyVar names the environment variable holding the active provider's credential
func (c *Config) ProviderKeyVar() string {
	if c.ImageProvider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// ProviderAPIKey returns the active provider's credential, read at call time
func (c *Config) ProviderAPIKey() string {
	if c.ImageProvider == ProviderGemini {
		return c.GeminiAPIKey()
	}
	return c.OpenAIAPIKey()
}

// IsProduction reports whether the service runs in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func parseList(raw string, defaultValue []string) []string {
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
