package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/airplanegirl/cards-for-care-api/internal/config"
	"github.com/gin-gonic/gin"
)

// MetricsHandler reports process runtime stats and the active image settings
type MetricsHandler struct {
	startedAt time.Time
	version   string
	cfg       *config.Config
}

func NewMetricsHandler(version string, cfg *config.Config) *MetricsHandler {
	return &MetricsHandler{
		startedAt: time.Now(),
		version:   version,
		cfg:       cfg,
	}
}

// RuntimeStats is a snapshot of the Go runtime
type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"num_goroutine"`
	HeapMiB    uint64 `json:"mem_alloc_mb"`
	TotalMiB   uint64 `json:"mem_total_mb"`
	GCCycles   uint32 `json:"num_gc"`
}

// ImageSettings echoes the generation configuration without credentials
type ImageSettings struct {
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	Size              string `json:"size"`
	RemoteImagePolicy string `json:"remote_image_policy"`
	Timeout           string `json:"timeout"`
	MaxRetries        int    `json:"max_retries"`
}

type MetricsResponse struct {
	Status    string       `json:"status"`
	Uptime    string       `json:"uptime"`
	Timestamp string       `json:"timestamp"`
	Version   string       `json:"version"`
	StartTime string       `json:"start_time"`
	System    RuntimeStats `json:"system"`
	API       struct {
		Environment string        `json:"environment"`
		Image       ImageSettings `json:"image"`
	} `json:"api"`
}

func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := MetricsResponse{
		Status:    "healthy",
		Uptime:    time.Since(h.startedAt).Round(10 * time.Millisecond).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		StartTime: h.startedAt.UTC().Format(time.RFC3339),
		System: RuntimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			HeapMiB:    mem.Alloc >> 20,
			TotalMiB:   mem.TotalAlloc >> 20,
			GCCycles:   mem.NumGC,
		},
	}
	resp.API.Environment = h.cfg.Environment
	resp.API.Image = ImageSettings{
		Provider:          h.cfg.ImageProvider,
		Model:             h.cfg.ImageModel,
		Size:              h.cfg.ImageSize,
		RemoteImagePolicy: h.cfg.RemoteImagePolicy,
		Timeout:           h.cfg.ProviderTimeout.String(),
		MaxRetries:        h.cfg.ProviderMaxRetries,
	}

	c.JSON(http.StatusOK, resp)
}
