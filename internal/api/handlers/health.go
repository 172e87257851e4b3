package handlers

import (
	"net/http"

	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports service and provider status
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthCheck returns the health status of the API.
// The credential is checked at call time, the same way generation checks it.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	keyStatus := "missing"
	if h.cfg.ProviderAPIKey() != "" {
		keyStatus = "configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"provider": gin.H{
			"name":       h.cfg.ImageProvider,
			"model":      h.cfg.ImageModel,
			"credential": keyStatus,
		},
	})
}
