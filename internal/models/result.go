package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultImageMIME is used when neither the provider nor content sniffing yields an image type
const DefaultImageMIME = "image/png"

// ResultKind tags which representation a GenerationResult carries
type ResultKind string

const (
	ResultInline ResultKind = "inline"
	ResultRemote ResultKind = "remote"
)

// GenerationResult is either an inline data URI or a provider-hosted URL, never both
type GenerationResult struct {
	Kind    ResultKind
	DataURL string
	URL     string
}

// InlineResult encodes image bytes as a data URI
func InlineResult(mimeType string, data []byte) GenerationResult {
	return InlineResultFromBase64(mimeType, base64.StdEncoding.EncodeToString(data))
}

// InlineResultFromBase64 wraps an already base64-encoded payload as a data URI
func InlineResultFromBase64(mimeType, b64 string) GenerationResult {
	if mimeType == "" {
		mimeType = DefaultImageMIME
	}
	return GenerationResult{
		Kind:    ResultInline,
		DataURL: "data:" + mimeType + ";base64," + b64,
	}
}

// RemoteResult references a provider-hosted image
func RemoteResult(url string) GenerationResult {
	return GenerationResult{Kind: ResultRemote, URL: url}
}

// MarshalJSON serializes to the historical response shapes {imageDataUrl} or {imageUrl}
func (r GenerationResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultInline:
		return json.Marshal(struct {
			ImageDataURL string `json:"imageDataUrl"`
		}{r.DataURL})
	case ResultRemote:
		return json.Marshal(struct {
			ImageURL string `json:"imageUrl"`
		}{r.URL})
	default:
		return nil, fmt.Errorf("generation result: unknown kind %q", r.Kind)
	}
}
