// internal/model/job.go
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// JobKind represents the layout a print job is rendered with
type JobKind string

const (
	JobKitchenOrder   JobKind = "kitchen_order"
	JobPaymentReceipt JobKind = "payment_receipt"
)

// JobLine is a single ordered item
type JobLine struct {
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Note      *string          `json:"note,omitempty"`
}

// PrintJob is a transient description of one receipt or ticket
type PrintJob struct {
	Kind           JobKind          `json:"kind"`
	RestaurantName string           `json:"restaurant_name"`
	TableNumber    *string          `json:"table_number,omitempty"`
	OrderNumber    *string          `json:"order_number,omitempty"`
	CustomerName   *string          `json:"customer_name,omitempty"`
	Lines          []JobLine        `json:"lines"`
	Total          *decimal.Decimal `json:"total,omitempty"`
	PaymentMethod  *string          `json:"payment_method,omitempty"`
	GeneralNote    *string          `json:"general_note,omitempty"`
	IssuedAt       time.Time        `json:"issued_at"`
}

// Validate checks the job invariants
func (j *PrintJob) Validate() error {
	switch j.Kind {
	case JobKitchenOrder:
	case JobPaymentReceipt:
		if j.Total == nil {
			return &ValidationError{Field: "total", Message: "is required for payment receipts"}
		}
	default:
		return &ValidationError{Field: "kind", Message: "must be kitchen_order or payment_receipt"}
	}
	for i, line := range j.Lines {
		if strings.TrimSpace(line.Name) == "" {
			return &ValidationError{Field: "lines", Message: "item name is required at position " + strconv.Itoa(i)}
		}
	}
	return nil
}

// String returns a pointer to s, or nil when s is blank
func String(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Money returns a pointer to d
func Money(d decimal.Decimal) *decimal.Decimal {
	return &d
}

