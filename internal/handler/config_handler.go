// internal/handler/config_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// ConfigHandler handles printer configuration requests
type ConfigHandler struct {
	printerService *service.PrinterService
	logger         *utils.ServiceLogger
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(printerService *service.PrinterService, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		printerService: printerService,
		logger:         utils.NewServiceLogger(logger, "config-handler"),
	}
}

// RegisterRoutes registers config routes
func (h *ConfigHandler) RegisterRoutes(router *gin.RouterGroup) {
	configs := router.Group("/configs")
	{
		configs.GET("", h.ListConfigs)
		configs.POST("", h.CreateConfig)

		configRoutes := configs.Group("/:id")
		{
			configRoutes.GET("", h.GetConfig)
			configRoutes.PUT("", h.UpdateConfig)
			configRoutes.DELETE("", h.DeleteConfig)
			configRoutes.POST("/test", h.TestConfig)
		}
	}
}

// ListConfigs lists printer configs
// @Summary List printer configs
// @Tags Configs
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]service.ConfigView}
// @Router /configs [get]
func (h *ConfigHandler) ListConfigs(c *gin.Context) {
	configs, err := h.printerService.ListConfigs(c.Request.Context())
	if err != nil {
		utils.FailFromError(c, "Failed to list configs", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Configs retrieved", configs)
}

// CreateConfig creates a printer config
// @Summary Create printer config
// @Tags Configs
// @Accept json
// @Produce json
// @Param request body model.PrinterConfig true "Printer config"
// @Success 201 {object} utils.APIResponse{data=model.PrinterConfig}
// @Failure 400 {object} utils.APIResponse "Invalid config"
// @Router /configs [post]
func (h *ConfigHandler) CreateConfig(c *gin.Context) {
	var cfg model.PrinterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg.ID = ""

	saved, err := h.printerService.SaveConfig(c.Request.Context(), cfg)
	if err != nil {
		utils.FailFromError(c, "Failed to save config", err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Config created", saved)
}

// GetConfig returns a printer config
// @Summary Get printer config
// @Tags Configs
// @Produce json
// @Param id path string true "Config ID"
// @Success 200 {object} utils.APIResponse{data=model.PrinterConfig}
// @Failure 404 {object} utils.APIResponse "Config not found"
// @Router /configs/{id} [get]
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg, err := h.printerService.GetConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.FailFromError(c, "Config not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Config retrieved", cfg)
}

// UpdateConfig replaces a printer config
// @Summary Update printer config
// @Tags Configs
// @Accept json
// @Produce json
// @Param id path string true "Config ID"
// @Param request body model.PrinterConfig true "Printer config"
// @Success 200 {object} utils.APIResponse{data=model.PrinterConfig}
// @Failure 400 {object} utils.APIResponse "Invalid config"
// @Failure 404 {object} utils.APIResponse "Config not found"
// @Router /configs/{id} [put]
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	var cfg model.PrinterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg.ID = c.Param("id")

	saved, err := h.printerService.SaveConfig(c.Request.Context(), cfg)
	if err != nil {
		utils.FailFromError(c, "Failed to save config", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Config updated", saved)
}

// DeleteConfig removes a printer config
// @Summary Delete printer config
// @Tags Configs
// @Produce json
// @Param id path string true "Config ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse "Config not found"
// @Router /configs/{id} [delete]
func (h *ConfigHandler) DeleteConfig(c *gin.Context) {
	id := c.Param("id")
	if err := h.printerService.DeleteConfig(c.Request.Context(), id); err != nil {
		utils.FailFromError(c, "Failed to delete config", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Config deleted", gin.H{"id": id})
}

// TestConfig prints a sample through a config
// @Summary Test print
// @Description Print a one-line sample through the config's printer, ignoring its autoprint and enabled flags
// @Tags Configs
// @Produce json
// @Param id path string true "Config ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse "Config not found"
// @Failure 409 {object} utils.APIResponse "Printer not connected"
// @Failure 502 {object} utils.APIResponse "Printer write failed"
// @Router /configs/{id}/test [post]
func (h *ConfigHandler) TestConfig(c *gin.Context) {
	id := c.Param("id")
	if err := h.printerService.TestConfig(c.Request.Context(), id); err != nil {
		h.logger.Warn("Test print failed", zap.String("config_id", id), zap.Error(err))
		utils.FailFromError(c, "Test print failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Test page printed", gin.H{"id": id})
}
