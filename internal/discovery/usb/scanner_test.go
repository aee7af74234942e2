package usb

import (
	"testing"

	"github.com/google/gousb"
	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
)

func TestHasClass(t *testing.T) {
	desc := &gousb.DeviceDesc{
		Class: gousb.ClassPerInterface,
		Configs: map[int]gousb.ConfigDesc{
			1: {
				Number: 1,
				Interfaces: []gousb.InterfaceDesc{
					{Number: 0, AltSettings: []gousb.InterfaceSetting{{Number: 0, Alternate: 0, Class: gousb.ClassPrinter}}},
				},
			},
		},
	}

	if !hasClass(desc, USBClassPrinter) {
		t.Error("Expected printer class on interface to be detected")
	}
	if hasClass(desc, gousb.ClassHID) {
		t.Error("Expected HID class not to be detected")
	}
}

func TestShouldExamineDevice(t *testing.T) {
	s := NewScanner(nil, zaptest.NewLogger(t), nil)

	if !s.shouldExamineDevice(&gousb.DeviceDesc{Vendor: 0x04B8, Product: 0x0202}) {
		t.Error("Expected known vendor to be examined")
	}
	if s.shouldExamineDevice(&gousb.DeviceDesc{Vendor: 0x046D, Class: gousb.ClassHID}) {
		t.Error("Expected HID device not to be examined")
	}
	if !s.shouldExamineDevice(&gousb.DeviceDesc{Vendor: 0x9999, Class: gousb.ClassVendorSpec}) {
		t.Error("Expected vendor specific device to be examined")
	}
}

func TestDisplayName(t *testing.T) {
	s := NewScanner(nil, zaptest.NewLogger(t), nil)

	cases := []struct {
		vendor, product       uint16
		manufacturer, prodStr string
		want                  string
	}{
		{0x04B8, 0x0202, "EPSON", "TM-T20", "EPSON TM-T20"},
		{0x04B8, 0x0202, "EPSON", "EPSON TM-T20", "EPSON TM-T20"},
		{0x04B8, 0x0202, "", "", "Seiko Epson Corporation TM-T88IV"},
		{0x0FE6, 0x811E, "", "", "ICS Advent (POS-58 clones) 811E"},
		{0x9999, 0x0001, "", "", "USB Printer 9999:0001"},
	}

	for _, c := range cases {
		if got := s.displayName(c.vendor, c.product, c.manufacturer, c.prodStr); got != c.want {
			t.Errorf("displayName(%04X, %04X, %q, %q) = %q, want %q", c.vendor, c.product, c.manufacturer, c.prodStr, got, c.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	devices := dedupe([]model.PrinterDevice{{ID: "usb:04B8:0202"}, {ID: "usb:04B8:0202"}, {ID: "usb:0519:0001"}})
	if len(devices) != 2 {
		t.Errorf("Expected 2 unique devices, got %d", len(devices))
	}
}
