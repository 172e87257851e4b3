package imagegen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("test-key", option.WithBaseURL(srv.URL+"/v1/"))
}

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider("test-api-key")
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())
	assert.NotNil(t, provider.client)
}

func TestOpenAIProvider_BuildRequestParams(t *testing.T) {
	provider := NewOpenAIProvider("test-key")

	params := provider.buildRequestParams(&ImageRequest{Prompt: "a card", Model: "gpt-image-1", Size: "1024x1536"})
	assert.Equal(t, "a card", params.Prompt)
	assert.Equal(t, "gpt-image-1", params.Model)
	assert.Equal(t, "1024x1536", string(params.Size))
	assert.Equal(t, int64(1), params.N.Value)
}

func TestOpenAIProvider_GenerateBase64(t *testing.T) {
	var got map[string]any
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"output_format":"png","data":[{"b64_json":"iVBORw0KGgo="}],` +
			`"usage":{"input_tokens":10,"output_tokens":20,"total_tokens":30,"input_tokens_details":{"image_tokens":0,"text_tokens":10}}}`))
	})

	resp, err := provider.Generate(context.Background(), &ImageRequest{Prompt: "a card", Model: "gpt-image-1", Size: "1024x1536"})
	require.NoError(t, err)

	assert.Equal(t, "a card", got["prompt"])
	assert.Equal(t, "1024x1536", got["size"])
	assert.Equal(t, "gpt-image-1", got["model"])

	assert.True(t, resp.HasInline())
	assert.False(t, resp.HasURL())
	assert.Equal(t, "iVBORw0KGgo=", resp.B64)
	assert.Equal(t, "image/png", resp.MIMEType)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(30), resp.Usage.TotalTokens)
	assert.Contains(t, resp.Raw, "b64_json")
}

func TestOpenAIProvider_GenerateURL(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://cdn.example/card.png"}]}`))
	})

	resp, err := provider.Generate(context.Background(), &ImageRequest{Prompt: "a card"})
	require.NoError(t, err)
	assert.False(t, resp.HasInline())
	assert.Equal(t, "https://cdn.example/card.png", resp.URL)
	assert.Nil(t, resp.Usage)
}

func TestOpenAIProvider_GenerateEmpty(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	})

	resp, err := provider.Generate(context.Background(), &ImageRequest{Prompt: "a card"})
	require.NoError(t, err)
	assert.False(t, resp.HasInline())
	assert.False(t, resp.HasURL())
	assert.JSONEq(t, `{"created":1,"data":[]}`, resp.Raw)
}

func TestOpenAIProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			})

			_, err := provider.Generate(context.Background(), &ImageRequest{Prompt: "a card"})
			require.Error(t, err)
			assert.Equal(t, 1, calls, "SDK retries must be disabled")
			assert.Equal(t, models.KindProviderRejected, models.KindOf(err))
			assert.Equal(t, tt.retryable, models.IsRetryable(err))
		})
	}
}

func TestOpenAIProvider_Timeout(t *testing.T) {
	provider := newTestOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.Generate(ctx, &ImageRequest{Prompt: "a card"})
	require.Error(t, err)
	assert.Equal(t, models.KindProviderTimeout, models.KindOf(err))
}

func TestOpenAIProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	provider := NewOpenAIProvider("test-key", option.WithBaseURL(url+"/v1/"))
	_, err := provider.Generate(context.Background(), &ImageRequest{Prompt: "a card"})
	require.Error(t, err)
	assert.Equal(t, models.KindProviderUnreachable, models.KindOf(err))
	assert.True(t, models.IsRetryable(err))
}
