// internal/handler/health_handler.go
package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
	"printer-service/internal/utils"
)

// DatabaseChecker is the part of the database the health checks need
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
	GetStats() sql.DBStats
}

// PrinterStatusReporter reports transport support and live printers
type PrinterStatusReporter interface {
	Support() model.Capabilities
	LiveDevices() []model.PrinterDevice
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db        DatabaseChecker
	printers  PrinterStatusReporter
	config    *config.Config
	logger    *utils.ServiceLogger
	startedAt time.Time
}

// NewHealthHandler creates a new health handler. db may be nil when print
// history is kept in memory.
func NewHealthHandler(db DatabaseChecker, printers PrinterStatusReporter, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		printers:  printers,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startedAt: time.Now(),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/health/db", h.DatabaseHealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall service health including printer transports and, when enabled, the history database
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	support := h.printers.Support()
	live := h.printers.LiveDevices()
	printerCheck := CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"usb":           support.USBAvailable,
			"serial":        support.SerialAvailable,
			"live_printers": len(live),
		},
	}
	if !support.Supported {
		// the service stays up; hooks degrade to silent skips
		printerCheck.Status = "degraded"
		printerCheck.Message = "No printer transport available on this host"
	}
	health.Checks["printers"] = printerCheck

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			health.Status = "unhealthy"
			health.Checks["database"] = CheckResult{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			stats := h.db.GetStats()
			health.Checks["database"] = CheckResult{
				Status:  "healthy",
				Message: "Database connection OK",
				Data: map[string]interface{}{
					"open_connections": stats.OpenConnections,
					"in_use":           stats.InUse,
					"idle":             stats.Idle,
				},
			}
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// DatabaseHealthCheck checks database connectivity
// @Summary Database health check
// @Description Check the print history database
// @Tags Health
// @Produce json
// @Success 200 {object} utils.APIResponse "Database is healthy"
// @Failure 404 {object} utils.APIResponse "Database disabled"
// @Failure 503 {object} utils.APIResponse "Database is unhealthy"
// @Router /health/db [get]
func (h *HealthHandler) DatabaseHealthCheck(c *gin.Context) {
	if h.db == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Database disabled", nil)
		return
	}

	startTime := time.Now()
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Database unhealthy", err)
		return
	}

	stats := h.db.GetStats()
	utils.SuccessResponse(c, http.StatusOK, "Database is healthy", gin.H{
		"status":           "healthy",
		"response_time_ms": time.Since(startTime).Milliseconds(),
		"stats": gin.H{
			"open_connections":    stats.OpenConnections,
			"in_use":              stats.InUse,
			"idle":                stats.Idle,
			"wait_count":          stats.WaitCount,
			"wait_duration":       stats.WaitDuration,
			"max_idle_closed":     stats.MaxIdleClosed,
			"max_lifetime_closed": stats.MaxLifetimeClosed,
		},
	})
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Description Check if service is ready to accept traffic
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database not available",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
