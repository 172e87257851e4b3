package api

import (
	"net/http"

	"github.com/airplanegirl/cards-for-care-api/internal/api/handlers"
	apimiddleware "github.com/airplanegirl/cards-for-care-api/internal/api/middleware"
	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/airplanegirl/cards-for-care-api/internal/metrics"
	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the router wires into handlers
type Dependencies struct {
	CardOptions models.CardOptions
	Cards       handlers.CardGenerator
	Metrics     *metrics.Recorder
}

func SetupRouter(cfg *config.Config, deps Dependencies, version string) *gin.Engine {
	router := gin.New()

	// Methods outside gin's Any set (PROPFIND, custom verbs) get the same JSON 405
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	// CORS middleware, answers preflight for every route
	router.Use(apimiddleware.CORS(cfg.AllowedOrigins))

	// Health check
	healthHandler := handlers.NewHealthHandler(cfg)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, cfg)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Card generation; the handler owns method dispatch so unsupported methods get a JSON 405
	cardHandler := handlers.NewCardHandler(cfg, deps.CardOptions, deps.Cards)
	router.Any("/generate", cardHandler.Handle)
	router.Any("/api/generate-card", cardHandler.Handle)

	return router
}
