// internal/service/types.go
package service

import (
	"github.com/shopspring/decimal"

	"printer-service/internal/model"
)

// ConnectRequest asks the registry to connect a printer of one transport
type ConnectRequest struct {
	Transport string `json:"transport" binding:"required"`
	DeviceID  string `json:"device_id,omitempty"`
}

// ConfigView is a stored config together with the observed device state
type ConfigView struct {
	model.PrinterConfig
	DeviceStatus model.DeviceStatus `json:"device_status"`
}

// KitchenOrderRequest is the payload of the order created hook
type KitchenOrderRequest struct {
	RestaurantName string          `json:"restaurant_name" binding:"required"`
	TableNumber    *string         `json:"table_number,omitempty"`
	Items          []model.JobLine `json:"items" binding:"required"`
	Note           *string         `json:"note,omitempty"`
}

// PaymentReceiptRequest is the payload of the payment completed hook
type PaymentReceiptRequest struct {
	RestaurantName string          `json:"restaurant_name" binding:"required"`
	TableNumber    *string         `json:"table_number,omitempty"`
	Items          []model.JobLine `json:"items" binding:"required"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  string          `json:"payment_method"`
}
