package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/airplanegirl/cards-for-care-api/internal/imagegen"
	"github.com/airplanegirl/cards-for-care-api/internal/logger"
	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	statusMessage      = "Cards for Care API is running. Send a POST to generate an image."
	maxErrorDetailsLen = 200
	maxCardBodyBytes   = 64 << 10
)

var providerDisplayNames = map[string]string{
	config.ProviderOpenAI: "OpenAI",
	config.ProviderGemini: "Gemini",
}

// CardGenerator produces an image for a validated card request
type CardGenerator interface {
	Generate(ctx context.Context, req models.CardRequest) (models.GenerationResult, error)
}

// CardHandler serves the card generation endpoint
type CardHandler struct {
	cfg     *config.Config
	options models.CardOptions
	service CardGenerator
}

// NewCardHandler creates a card handler validating against options
func NewCardHandler(cfg *config.Config, options models.CardOptions, service CardGenerator) *CardHandler {
	return &CardHandler{
		cfg:     cfg,
		options: options,
		service: service,
	}
}

// Handle dispatches on method: GET is a status check, POST generates, anything else is 405.
// OPTIONS never reaches here; the CORS middleware answers it.
func (h *CardHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.Status(c)
	case http.MethodPost:
		h.Generate(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	}
}

// Status returns a static payload without touching the provider
func (h *CardHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": statusMessage,
	})
}

// Generate validates the card request and returns the generated image
func (h *CardHandler) Generate(c *gin.Context) {
	fields := logger.WithContext(c)
	fields["provider"] = h.cfg.ImageProvider

	// Checked before the body so a misconfigured deployment fails fast
	if h.cfg.ProviderAPIKey() == "" {
		missing := imagegen.MissingKeyError(h.cfg)
		fields["error_kind"] = string(missing.Kind)
		logger.Error("Provider credential missing", missing, fields)
		c.JSON(http.StatusInternalServerError, gin.H{"error": missing.Details})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCardBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		fields["error"] = err.Error()
		logger.Warn("Failed to read request body", fields)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req, err := h.options.ParseCardRequest(body)
	if err != nil {
		var valErr *models.ValidationError
		if errors.As(err, &valErr) {
			fields["invalid_fields"] = valErr.Fields
		}
		logger.Warn("Invalid card request", fields)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		h.writeGenerationError(c, err, fields)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeGenerationError maps a generation failure to the minimal external envelope
func (h *CardHandler) writeGenerationError(c *gin.Context, err error, fields logger.Fields) {
	kind := models.KindOf(err)
	fields["error_kind"] = string(kind)

	var genErr *models.GenerationError
	errors.As(err, &genErr)

	switch kind {
	case models.KindValidationFailed:
		logger.Warn("Invalid card request", fields)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})

	case models.KindConfigMissing:
		logger.Error("Provider configuration missing", err, fields)
		message := imagegen.MissingKeyError(h.cfg).Details
		if genErr != nil && genErr.Details != "" {
			message = genErr.Details
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})

	case models.KindProviderEmptyResponse:
		logger.Error("Provider returned no usable image", err, fields)
		response := gin.H{"error": h.providerDisplayName() + " returned no image data."}
		if genErr != nil && genErr.Details != "" {
			response["details"] = genErr.Details
		}
		c.JSON(http.StatusInternalServerError, response)

	default:
		logger.Error("Card generation failed", err, fields)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"details": models.Truncate(err.Error(), maxErrorDetailsLen),
		})
	}
}

func (h *CardHandler) providerDisplayName() string {
	if name, ok := providerDisplayNames[h.cfg.ImageProvider]; ok {
		return name
	}
	return h.cfg.ImageProvider
}
