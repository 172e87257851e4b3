package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/api"
	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/airplanegirl/cards-for-care-api/internal/imagegen"
	"github.com/airplanegirl/cards-for-care-api/internal/logger"
	"github.com/airplanegirl/cards-for-care-api/internal/metrics"
	"github.com/airplanegirl/cards-for-care-api/internal/models"
	"github.com/airplanegirl/cards-for-care-api/internal/observability"
	"github.com/airplanegirl/cards-for-care-api/internal/services"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownTimeout       = 10 * time.Second
	readHeaderTimeout     = 10 * time.Second
	idleTimeout           = 120 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	if err := run(); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(sentryFlushTimeout)
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Setup(os.Stdout, cfg.LogLevel)

	initSentry(cfg)
	defer sentry.Flush(sentryFlushTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cardOptions, err := models.LoadCardOptions(cfg.CardOptionsFile)
	if err != nil {
		return err
	}

	cloudwatchClient, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder(metrics.NewSentryMetrics(), cloudwatchClient)

	langfuseClient := observability.InitializeLangfuse(ctx, cfg)

	httpClient := &http.Client{}
	cardService := services.NewCardService(
		cfg,
		imagegen.NewProviderFactory(cfg, httpClient),
		imagegen.NewFetcher(httpClient, cfg.RemoteImageMaxBytes),
		recorder,
		langfuseClient,
	)

	if cfg.Environment == environmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		CardOptions: cardOptions,
		Cards:       cardService,
		Metrics:     recorder,
	}, GetVersion())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		// Writes must outlive a full provider call including its retry
		WriteTimeout: cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:  idleTimeout,
	}

	if cfg.ProviderAPIKey() == "" {
		logger.Warn("Provider credential not set; generation requests will fail until it is", logger.Fields{
			"provider": cfg.ImageProvider,
			"env_var":  cfg.ProviderKeyVar(),
		})
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", logger.Fields{
			"port":     cfg.Port,
			"provider": cfg.ImageProvider,
			"model":    cfg.ImageModel,
			"version":  releaseVersion,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initSentry(cfg *config.Config) {
	if cfg.SentryDSN == "" {
		logger.Info("Sentry not configured (SENTRY_DSN not set)", nil)
		return
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          "cards-for-care-api@" + releaseVersion,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Environment != environmentProduction,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
			}
			return event
		},
	}); err != nil {
		logger.Warn("Failed to initialize Sentry", logger.Fields{"error": err.Error()})
		return
	}

	logger.Info("Sentry initialized", logger.Fields{
		"environment": cfg.Environment,
		"release":     releaseVersion,
	})
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
