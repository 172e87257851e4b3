package imagegen

import (
	"context"
	"testing"

	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFactory_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "   ")
	factory := NewProviderFactory(&config.Config{ImageProvider: config.ProviderOpenAI}, nil)

	assert.False(t, factory.KeyConfigured())
	_, err := factory.GetProvider(context.Background())
	require.Error(t, err)

	var genErr *models.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, models.KindConfigMissing, genErr.Kind)
	assert.Equal(t, "Missing OPENAI_API_KEY env var.", genErr.Details)
}

func TestProviderFactory_KeyReadAtCallTime(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	factory := NewProviderFactory(&config.Config{ImageProvider: config.ProviderOpenAI}, nil)
	assert.False(t, factory.KeyConfigured())

	t.Setenv("OPENAI_API_KEY", "sk-test")
	provider, err := factory.GetProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())
}

func TestProviderFactory_Gemini(t *testing.T) {
	cfg := &config.Config{ImageProvider: config.ProviderGemini}

	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewProviderFactory(cfg, nil).GetProvider(context.Background())
	var genErr *models.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Missing GEMINI_API_KEY env var.", genErr.Details)

	t.Setenv("GEMINI_API_KEY", "gm-test")
	provider, err := NewProviderFactory(cfg, nil).GetProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
}
