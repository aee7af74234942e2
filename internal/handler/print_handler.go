// internal/handler/print_handler.go
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrintHandler handles print requests
type PrintHandler struct {
	dispatcher *service.PrintDispatcher
	logger     *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(dispatcher *service.PrintDispatcher, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		dispatcher: dispatcher,
		logger:     utils.NewServiceLogger(logger, "print-handler"),
	}
}

// RegisterRoutes registers print routes
func (h *PrintHandler) RegisterRoutes(router *gin.RouterGroup) {
	printing := router.Group("/print")
	{
		printing.POST("/kitchen", h.KitchenOrder)
		printing.POST("/payment", h.PaymentReceipt)
		printing.POST("/jobs/:role", h.Print)
	}
}

// KitchenOrder is called when an order is created
// @Summary Kitchen order hook
// @Description Print the order on the kitchen printer when autoprint is on. Always accepted; printing happens in the background.
// @Tags Print
// @Accept json
// @Produce json
// @Param request body service.KitchenOrderRequest true "Kitchen order"
// @Success 202 {object} utils.APIResponse
// @Router /print/kitchen [post]
func (h *PrintHandler) KitchenOrder(c *gin.Context) {
	var req service.KitchenOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go h.dispatcher.PrintKitchenOrder(ctx, req.RestaurantName, req.TableNumber, req.Items, req.Note)

	utils.SuccessResponse(c, http.StatusAccepted, "Kitchen order accepted", nil)
}

// PaymentReceipt is called when a payment completes
// @Summary Payment receipt hook
// @Description Print the receipt on the payment printer when autoprint is on. Always accepted; printing happens in the background.
// @Tags Print
// @Accept json
// @Produce json
// @Param request body service.PaymentReceiptRequest true "Payment receipt"
// @Success 202 {object} utils.APIResponse
// @Router /print/payment [post]
func (h *PrintHandler) PaymentReceipt(c *gin.Context) {
	var req service.PaymentReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go h.dispatcher.PrintPaymentReceipt(ctx, req.RestaurantName, req.TableNumber, req.Items, req.Total, req.PaymentMethod)

	utils.SuccessResponse(c, http.StatusAccepted, "Payment receipt accepted", nil)
}

// Print prints a full job on the printer configured for a role
// @Summary Print job
// @Description Print a job through the enabled config of a role. A role without an enabled config succeeds without printing.
// @Tags Print
// @Accept json
// @Produce json
// @Param role path string true "Printer role" Enums(kitchen, payment)
// @Param request body model.PrintJob true "Print job"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse "Invalid job"
// @Failure 502 {object} utils.APIResponse "Printer write failed"
// @Router /print/jobs/{role} [post]
func (h *PrintHandler) Print(c *gin.Context) {
	role := model.PrinterRole(c.Param("role"))
	if !role.Valid() {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid role", &model.ValidationError{Field: "role", Message: "must be kitchen or payment"})
		return
	}

	var job model.PrintJob
	if err := c.ShouldBindJSON(&job); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.dispatcher.Print(c.Request.Context(), job, role); err != nil {
		utils.FailFromError(c, "Print failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Print job sent", gin.H{"role": role})
}
