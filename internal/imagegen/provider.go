package imagegen

import (
	"context"
)

// Provider defines the interface for image generation providers
type Provider interface {
	// Generate renders a single image for the prompt.
	// A response with neither image data nor a URL is not an error here;
	// callers decide how to report it.
	Generate(ctx context.Context, request *ImageRequest) (*ImageResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// ImageRequest contains all parameters needed for one image generation
type ImageRequest struct {
	Prompt string
	Model  string
	Size   string // WxH, e.g. "1024x1536"
}

// ImageResponse is what a provider returned for a single image.
// At most one of B64, Data and URL is expected to be set.
type ImageResponse struct {
	B64      string // base64 payload as returned by the API
	Data     []byte // raw image bytes
	MIMEType string // provider-declared type, may be empty
	URL      string // provider-hosted image
	Raw      string // raw response body for diagnostics
	Usage    *Usage
}

// Usage carries token accounting when the provider reports it
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// HasInline reports whether the response carries image bytes
func (r *ImageResponse) HasInline() bool {
	return r != nil && (r.B64 != "" || len(r.Data) > 0)
}

// HasURL reports whether the response carries a remote image reference
func (r *ImageResponse) HasURL() bool {
	return r != nil && r.URL != ""
}
