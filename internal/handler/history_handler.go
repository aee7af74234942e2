// internal/handler/history_handler.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// HistoryHandler serves the print history
type HistoryHandler struct {
	printerService *service.PrinterService
	logger         *utils.ServiceLogger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(printerService *service.PrinterService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		printerService: printerService,
		logger:         utils.NewServiceLogger(logger, "history-handler"),
	}
}

// RegisterRoutes registers history routes
func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/history", h.ListHistory)
	router.GET("/history/stats", h.Stats)
}

// ListHistory lists recent print records
// @Summary Print history
// @Tags History
// @Produce json
// @Param role query string false "Filter by role" Enums(kitchen, payment)
// @Param status query string false "Filter by status" Enums(PRINTED, FAILED, SKIPPED)
// @Param device_id query string false "Filter by device"
// @Param limit query int false "Maximum records" default(50)
// @Success 200 {object} utils.APIResponse{data=[]model.PrintRecord}
// @Router /history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	filter := &model.HistoryFilter{Limit: 50}

	if role := c.Query("role"); role != "" {
		r := model.PrinterRole(role)
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		s := model.PrintStatus(status)
		filter.Status = &s
	}
	if deviceID := c.Query("device_id"); deviceID != "" {
		filter.DeviceID = &deviceID
	}
	if limit := c.Query("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= 500 {
			filter.Limit = l
		}
	}

	records, err := h.printerService.History(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list print history", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list print history", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Print history retrieved", records)
}

// Stats summarises the print history
// @Summary Print history statistics
// @Tags History
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.HistoryStats}
// @Router /history/stats [get]
func (h *HistoryHandler) Stats(c *gin.Context) {
	stats, err := h.printerService.HistoryStats(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get print statistics", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Print statistics retrieved", stats)
}
