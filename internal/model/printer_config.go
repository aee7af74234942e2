// internal/model/printer_config.go
package model

import (
	"strings"
	"time"
)

// PrinterRole is the purpose a printer serves independent of the device
type PrinterRole string

const (
	RoleKitchen PrinterRole = "kitchen"
	RolePayment PrinterRole = "payment"
)

// Valid reports whether the role is known
func (r PrinterRole) Valid() bool {
	return r == RoleKitchen || r == RolePayment
}

// JobKind returns the job kind printed for the role
func (r PrinterRole) JobKind() JobKind {
	if r == RoleKitchen {
		return JobKitchenOrder
	}
	return JobPaymentReceipt
}

// PaperWidth is the number of characters per printed line
type PaperWidth int

const (
	PaperWidth58mm PaperWidth = 32
	PaperWidth80mm PaperWidth = 48
)

// Valid reports whether the width is a supported paper size
func (w PaperWidth) Valid() bool {
	return w == PaperWidth58mm || w == PaperWidth80mm
}

// PrinterConfig binds a logical role to a physical device
type PrinterConfig struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Role            PrinterRole   `json:"role"`
	DeviceID        string        `json:"device_id"`
	DeviceName      string        `json:"device_name"`
	PaperWidthChars PaperWidth    `json:"paper_width_chars"`
	Copies          int           `json:"copies"`
	Autoprint       bool          `json:"autoprint"`
	Enabled         bool          `json:"enabled"`
	ConnectionKind  TransportKind `json:"connection_kind"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Normalize trims text fields and applies defaults for omitted values
func (c *PrinterConfig) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.DeviceID = strings.TrimSpace(c.DeviceID)
	c.DeviceName = strings.TrimSpace(c.DeviceName)
	if c.Copies == 0 {
		c.Copies = 1
	}
	if c.PaperWidthChars == 0 {
		c.PaperWidthChars = PaperWidth58mm
	}
	if c.ConnectionKind == "" {
		if kind, ok := TransportOf(c.DeviceID); ok {
			c.ConnectionKind = kind
		}
	}
}

// Validate checks the config before it is persisted
func (c *PrinterConfig) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if c.DeviceID == "" {
		return &ValidationError{Field: "device_id", Message: "is required"}
	}
	if !c.Role.Valid() {
		return &ValidationError{Field: "role", Message: "must be kitchen or payment"}
	}
	if !c.PaperWidthChars.Valid() {
		return &ValidationError{Field: "paper_width_chars", Message: "must be 32 or 48"}
	}
	if c.Copies < 1 {
		return &ValidationError{Field: "copies", Message: "must be at least 1"}
	}
	if !c.ConnectionKind.Valid() {
		return &ValidationError{Field: "connection_kind", Message: "must be usb or serial"}
	}
	if kind, ok := TransportOf(c.DeviceID); ok && kind != c.ConnectionKind {
		return &ValidationError{Field: "connection_kind", Message: "does not match the device transport"}
	}
	return nil
}
