// internal/model/device.go
package model

import (
	"fmt"
	"strings"
)

// TransportKind represents the hardware channel a printer is reached through
type TransportKind string

const (
	TransportUSB    TransportKind = "usb"
	TransportSerial TransportKind = "serial"
)

// Valid reports whether the kind is one of the supported transports
func (k TransportKind) Valid() bool {
	return k == TransportUSB || k == TransportSerial
}

// ParseTransportKind parses a case-insensitive transport name
func ParseTransportKind(s string) (TransportKind, error) {
	kind := TransportKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTransport, s)
	}
	return kind, nil
}

// DeviceStatus represents the observed state of a printer
type DeviceStatus string

const (
	DeviceStatusConnected    DeviceStatus = "connected"
	DeviceStatusDisconnected DeviceStatus = "disconnected"
	DeviceStatusError        DeviceStatus = "error"
)

// PrinterDevice is a live or previously seen physical printer
type PrinterDevice struct {
	ID            string        `json:"id"`
	DisplayName   string        `json:"display_name"`
	TransportKind TransportKind `json:"transport_kind"`
	VendorID      *uint16       `json:"vendor_id,omitempty"`
	ProductID     *uint16       `json:"product_id,omitempty"`
	Manufacturer  string        `json:"manufacturer,omitempty"`
	Product       string        `json:"product,omitempty"`
	SerialNumber  string        `json:"serial_number,omitempty"`
	Port          string        `json:"port,omitempty"`
	Connected     bool          `json:"connected"`
}

// Capabilities reports which transports the host can drive
type Capabilities struct {
	USBAvailable    bool `json:"usb_available"`
	SerialAvailable bool `json:"serial_available"`
	Supported       bool `json:"supported"`
}

// USBDeviceID builds the stable id of a USB printer
func USBDeviceID(vendorID, productID uint16) string {
	return fmt.Sprintf("usb:%04X:%04X", vendorID, productID)
}

// SerialDeviceID builds the stable id of a serial printer. Ports bridged
// over USB are keyed by their VID/PID; anything else by its port path, so
// two unidentified adapters never share an id.
func SerialDeviceID(vendorID, productID *uint16, port string) string {
	if vendorID != nil && productID != nil {
		return fmt.Sprintf("serial:%04X:%04X", *vendorID, *productID)
	}
	return "serial:" + port
}

// TransportOf returns the transport encoded in a device id prefix
func TransportOf(deviceID string) (TransportKind, bool) {
	prefix, _, found := strings.Cut(deviceID, ":")
	if !found {
		return "", false
	}
	kind := TransportKind(prefix)
	return kind, kind.Valid()
}

// Uint16 returns a pointer to v
func Uint16(v uint16) *uint16 {
	return &v
}
