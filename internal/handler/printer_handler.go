// internal/handler/printer_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrinterHandler handles printer device requests
type PrinterHandler struct {
	printerService *service.PrinterService
	logger         *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printerService *service.PrinterService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		logger:         utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.GET("/support", h.Support)
		printers.GET("/discover", h.Discover)
		printers.GET("/live", h.LiveDevices)
		printers.POST("/connect", h.Connect)
		printers.POST("/:device_id/disconnect", h.Disconnect)
		printers.GET("/:device_id/status", h.Status)
	}
}

// Support reports transport availability
// @Summary Transport support
// @Description Report whether USB and serial printers can be driven on this host
// @Tags Printers
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.Capabilities}
// @Router /printers/support [get]
func (h *PrinterHandler) Support(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Transport support retrieved", h.printerService.Support())
}

// Discover lists printers exposed by the host
// @Summary Discover printers
// @Description List printers already exposed by the host for a transport, without opening them
// @Tags Printers
// @Produce json
// @Param transport query string true "Transport" Enums(usb, serial)
// @Success 200 {object} utils.APIResponse{data=[]model.PrinterDevice}
// @Failure 501 {object} utils.APIResponse "Transport not supported"
// @Router /printers/discover [get]
func (h *PrinterHandler) Discover(c *gin.Context) {
	devices, err := h.printerService.Discover(c.Request.Context(), c.Query("transport"))
	if err != nil {
		utils.FailFromError(c, "Discovery failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printers discovered", devices)
}

// Connect connects a printer
// @Summary Connect printer
// @Description Open a printer of the given transport, the requested device or the first candidate
// @Tags Printers
// @Accept json
// @Produce json
// @Param request body service.ConnectRequest true "Connect request"
// @Success 200 {object} utils.APIResponse{data=model.PrinterDevice}
// @Failure 404 {object} utils.APIResponse "No printer candidate"
// @Failure 502 {object} utils.APIResponse "Printer could not be opened"
// @Router /printers/connect [post]
func (h *PrinterHandler) Connect(c *gin.Context) {
	var req service.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	device, err := h.printerService.Connect(c.Request.Context(), req)
	if err != nil {
		utils.FailFromError(c, "Failed to connect printer", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer connected", device)
}

// Disconnect disconnects a printer
// @Summary Disconnect printer
// @Tags Printers
// @Produce json
// @Param device_id path string true "Device ID"
// @Success 200 {object} utils.APIResponse
// @Router /printers/{device_id}/disconnect [post]
func (h *PrinterHandler) Disconnect(c *gin.Context) {
	deviceID := c.Param("device_id")
	if err := h.printerService.Disconnect(c.Request.Context(), deviceID); err != nil {
		utils.FailFromError(c, "Failed to disconnect printer", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected", gin.H{"device_id": deviceID})
}

// Status reports a printer state
// @Summary Printer status
// @Description Report connected, disconnected or error; a printer that is not live gets one reconnect attempt
// @Tags Printers
// @Produce json
// @Param device_id path string true "Device ID"
// @Success 200 {object} utils.APIResponse
// @Router /printers/{device_id}/status [get]
func (h *PrinterHandler) Status(c *gin.Context) {
	deviceID := c.Param("device_id")
	status := h.printerService.Status(c.Request.Context(), deviceID)
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", gin.H{
		"device_id": deviceID,
		"status":    status,
	})
}

// LiveDevices lists connected printers
// @Summary Live printers
// @Tags Printers
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]model.PrinterDevice}
// @Router /printers/live [get]
func (h *PrinterHandler) LiveDevices(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Live printers retrieved", h.printerService.LiveDevices())
}
