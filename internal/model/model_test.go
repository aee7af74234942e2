package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPrinterConfigValidate(t *testing.T) {
	valid := PrinterConfig{
		Name:            "Cozinha",
		Role:            RoleKitchen,
		DeviceID:        USBDeviceID(0x04B8, 0x0202),
		PaperWidthChars: PaperWidth58mm,
		Copies:          1,
		ConnectionKind:  TransportUSB,
	}

	tests := []struct {
		name   string
		mutate func(c *PrinterConfig)
		field  string
	}{
		{"valid", func(c *PrinterConfig) {}, ""},
		{"missing name", func(c *PrinterConfig) { c.Name = "" }, "name"},
		{"missing device", func(c *PrinterConfig) { c.DeviceID = "" }, "device_id"},
		{"bad role", func(c *PrinterConfig) { c.Role = "bar" }, "role"},
		{"bad width", func(c *PrinterConfig) { c.PaperWidthChars = 40 }, "paper_width_chars"},
		{"negative copies", func(c *PrinterConfig) { c.Copies = -1 }, "copies"},
		{"transport mismatch", func(c *PrinterConfig) { c.ConnectionKind = TransportSerial }, "connection_kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("Expected error to match ErrValidation")
			}
		})
	}
}

func TestPrinterConfigNormalize(t *testing.T) {
	cfg := PrinterConfig{Name: "  Caixa ", DeviceID: "serial:/dev/ttyUSB0"}
	cfg.Normalize()

	if cfg.Name != "Caixa" {
		t.Errorf("Expected trimmed name, got %q", cfg.Name)
	}
	if cfg.Copies != 1 {
		t.Errorf("Expected copies to default to 1, got %d", cfg.Copies)
	}
	if cfg.PaperWidthChars != PaperWidth58mm {
		t.Errorf("Expected default width 32, got %d", cfg.PaperWidthChars)
	}
	if cfg.ConnectionKind != TransportSerial {
		t.Errorf("Expected connection kind derived from device id, got %q", cfg.ConnectionKind)
	}
}

func TestSerialDeviceIDDistinguishesUnidentifiedPorts(t *testing.T) {
	a := SerialDeviceID(nil, nil, "/dev/ttyS0")
	b := SerialDeviceID(nil, nil, "/dev/ttyS1")
	if a == b {
		t.Fatalf("Expected distinct ids, both were %q", a)
	}

	withIDs := SerialDeviceID(Uint16(0x1A86), Uint16(0x7523), "/dev/ttyUSB0")
	if withIDs != "serial:1A86:7523" {
		t.Errorf("Unexpected id %q", withIDs)
	}
}

func TestTransportOf(t *testing.T) {
	if kind, ok := TransportOf("usb:04B8:0202"); !ok || kind != TransportUSB {
		t.Errorf("Expected usb, got %q %v", kind, ok)
	}
	if kind, ok := TransportOf("serial:COM3"); !ok || kind != TransportSerial {
		t.Errorf("Expected serial, got %q %v", kind, ok)
	}
	if _, ok := TransportOf("bluetooth:AA"); ok {
		t.Error("Expected unknown prefix to be rejected")
	}
}

func TestPrintJobValidate(t *testing.T) {
	job := PrintJob{Kind: JobPaymentReceipt, Lines: []JobLine{{Name: "Agua", Quantity: 1}}}
	if err := job.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected payment job without total to fail, got %v", err)
	}

	job.Total = Money(decimal.RequireFromString("3.50"))
	if err := job.Validate(); err != nil {
		t.Fatalf("Expected valid job, got %v", err)
	}

	kitchen := PrintJob{Kind: JobKitchenOrder, Lines: []JobLine{{Name: " ", Quantity: 1}}}
	if err := kitchen.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected blank item name to fail, got %v", err)
	}
}

func TestTransportErrorGone(t *testing.T) {
	err := fmt.Errorf("print failed: %w",
		NewTransportError(TransportUSB, "usb:04B8:0202", "write", ErrDeviceGone, false))

	if !IsDeviceGone(err) {
		t.Error("Expected wrapped ErrDeviceGone to be classified as gone")
	}

	other := NewTransportError(TransportSerial, "serial:COM1", "write", errors.New("timeout"), false)
	if IsDeviceGone(other) {
		t.Error("Expected plain failure not to be classified as gone")
	}
}
