package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider, err := NewGeminiProvider(context.Background(), "test-key", GeminiOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	return provider
}

func TestNewGeminiProvider(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), "test-api-key", GeminiOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
	assert.NotNil(t, provider.client)
}

func TestAspectRatioFor(t *testing.T) {
	assert.Equal(t, "3:4", aspectRatioFor("1024x1536"))
	assert.Equal(t, "9:16", aspectRatioFor("1024x1792"))
	assert.Equal(t, "1:1", aspectRatioFor("1024x1024"))
	assert.Equal(t, "3:4", aspectRatioFor(""))
}

func TestGeminiProvider_ProcessResponse(t *testing.T) {
	provider := &GeminiProvider{}

	resp := provider.processResponse(&genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{RAIFilteredReason: "blocked"},
			{Image: &genai.Image{ImageBytes: []byte("png-bytes"), MIMEType: "image/png"}},
		},
	})
	assert.True(t, resp.HasInline())
	assert.Equal(t, []byte("png-bytes"), resp.Data)
	assert.Equal(t, "image/png", resp.MIMEType)

	filtered := provider.processResponse(&genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{RAIFilteredReason: "unsafe content"}},
	})
	assert.False(t, filtered.HasInline())
	assert.Equal(t, "filtered: unsafe content", filtered.Raw)

	assert.False(t, provider.processResponse(nil).HasInline())
}

func TestGeminiProvider_GenerateImage(t *testing.T) {
	provider := newTestGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":predict"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"iVBORw0KGgo=","mimeType":"image/png"}]}`))
	})

	resp, err := provider.Generate(context.Background(), &ImageRequest{
		Prompt: "a card", Model: "imagen-3.0-generate-002", Size: "1024x1536",
	})
	require.NoError(t, err)
	assert.True(t, resp.HasInline())
	assert.Equal(t, "image/png", resp.MIMEType)
}

func TestGeminiProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"unavailable", http.StatusServiceUnavailable, true},
		{"invalid argument", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestGeminiProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope","status":"ERR"}}`, tt.status)
			})

			_, err := provider.Generate(context.Background(), &ImageRequest{Prompt: "a card", Model: "imagen"})
			require.Error(t, err)
			assert.Equal(t, models.KindProviderRejected, models.KindOf(err))
			assert.Equal(t, tt.retryable, models.IsRetryable(err))
		})
	}
}
