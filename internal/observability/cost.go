package observability

import (
	"github.com/airplanegirl/cards-for-care-api/internal/imagegen"
)

// Pricing constants
const (
	tokensPerMillion = 1_000_000.0

	// gpt-image-1 token pricing (USD per 1M tokens)
	gptImage1InputPrice  = 5.0
	gptImage1OutputPrice = 40.0

	// Flat per-image pricing (USD) for models that do not report usage
	dalle3StandardSquare   = 0.040
	dalle3StandardPortrait = 0.080
	imagen3PerImage        = 0.040
	imagen4PerImage        = 0.040
	imagen4FastPerImage    = 0.020
)

// TokenPricing contains pricing per 1M tokens
type TokenPricing struct {
	InputPricePer1M  float64
	OutputPricePer1M float64
}

// TokenPricingTable contains token pricing for models that report usage
var TokenPricingTable = map[string]TokenPricing{
	"gpt-image-1": {
		InputPricePer1M:  gptImage1InputPrice,
		OutputPricePer1M: gptImage1OutputPrice,
	},
}

// ImagePricingTable contains flat per-image pricing keyed by model, then size ("" matches any size)
var ImagePricingTable = map[string]map[string]float64{
	"dall-e-3": {
		"1024x1024": dalle3StandardSquare,
		"1024x1792": dalle3StandardPortrait,
	},
	"imagen-3.0-generate-002":      {"": imagen3PerImage},
	"imagen-4.0-generate-001":      {"": imagen4PerImage},
	"imagen-4.0-fast-generate-001": {"": imagen4FastPerImage},
}

// EstimateImageCost estimates the USD cost of generating one image.
// Token usage wins when reported; otherwise a flat per-image price is used, or 0 if unknown.
func EstimateImageCost(model, size string, usage *imagegen.Usage) float64 {
	if usage != nil {
		if pricing, ok := TokenPricingTable[model]; ok {
			inputCost := (float64(usage.InputTokens) / tokensPerMillion) * pricing.InputPricePer1M
			outputCost := (float64(usage.OutputTokens) / tokensPerMillion) * pricing.OutputPricePer1M
			return inputCost + outputCost
		}
	}

	bySize, ok := ImagePricingTable[model]
	if !ok {
		return 0
	}
	if price, ok := bySize[size]; ok {
		return price
	}
	return bySize[""]
}
