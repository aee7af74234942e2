package discovery

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"printer-service/internal/model"
)

type fakeScanner struct {
	kind      model.TransportKind
	available bool
	devices   []model.PrinterDevice
	err       error
}

func (f *fakeScanner) Scan(ctx context.Context) ([]model.PrinterDevice, error) {
	return f.devices, f.err
}
func (f *fakeScanner) Kind() model.TransportKind { return f.kind }
func (f *fakeScanner) IsAvailable() bool         { return f.available }

func TestVendorDatabase(t *testing.T) {
	db := NewVendorDatabase()

	if got := db.VendorCount(); got != 18 {
		t.Errorf("Expected 18 known vendors, got %d", got)
	}
	if !db.IsKnownVendor(0x04B8) {
		t.Error("Expected Epson to be a known vendor")
	}
	if db.IsKnownVendor(0x046D) {
		t.Error("Expected Logitech not to be a known vendor")
	}
	if name := db.GetVendorInfo(0x04B8).ProductName(0x0202); name != "TM-T88IV" {
		t.Errorf("Unexpected product name %q", name)
	}
}

func TestLooksLikePrinter(t *testing.T) {
	cases := []struct {
		manufacturer, product string
		want                  bool
	}{
		{"", "POS58 USB", true},
		{"Generic", "Thermal Receipt", true},
		{"ACME", "Label PRINTER", true},
		{"Logitech", "USB Receiver", false},
		{"", "", false},
	}

	for _, c := range cases {
		if got := LooksLikePrinter(c.manufacturer, c.product); got != c.want {
			t.Errorf("LooksLikePrinter(%q, %q) = %v, want %v", c.manufacturer, c.product, got, c.want)
		}
	}
}

func TestIsPrinterCandidate(t *testing.T) {
	db := NewVendorDatabase()

	known := model.PrinterDevice{TransportKind: model.TransportUSB, VendorID: model.Uint16(0x0519), ProductID: model.Uint16(1)}
	named := model.PrinterDevice{TransportKind: model.TransportUSB, VendorID: model.Uint16(0x9999), Product: "Thermal Printer"}
	other := model.PrinterDevice{TransportKind: model.TransportUSB, VendorID: model.Uint16(0x046D), Product: "Mouse"}
	bare := model.PrinterDevice{TransportKind: model.TransportSerial, Port: "/dev/ttyS0"}

	if !db.IsPrinterCandidate(known) {
		t.Error("Expected known vendor to be a candidate")
	}
	if !db.IsPrinterCandidate(named) {
		t.Error("Expected printer named device to be a candidate")
	}
	if db.IsPrinterCandidate(other) {
		t.Error("Expected unrelated device to be filtered out")
	}
	if !db.IsPrinterCandidate(bare) {
		t.Error("Expected unidentified serial port to be offered")
	}
}

func TestScannerManager(t *testing.T) {
	usbScanner := &fakeScanner{
		kind:      model.TransportUSB,
		available: true,
		devices: []model.PrinterDevice{
			{ID: "usb:04B8:0202", TransportKind: model.TransportUSB, VendorID: model.Uint16(0x04B8), ProductID: model.Uint16(0x0202)},
			{ID: "usb:046D:C52B", TransportKind: model.TransportUSB, VendorID: model.Uint16(0x046D), ProductID: model.Uint16(0xC52B), Product: "Receiver"},
		},
	}
	serialScanner := &fakeScanner{kind: model.TransportSerial, available: false}

	sm := NewScannerManager(nil, zaptest.NewLogger(t))
	sm.RegisterScanner(usbScanner)
	sm.RegisterScanner(serialScanner)

	all, err := sm.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("ScanAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 devices, got %d", len(all))
	}

	candidates, err := sm.Candidates(context.Background(), model.TransportUSB)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "usb:04B8:0202" {
		t.Errorf("Unexpected candidates %+v", candidates)
	}

	if _, err := sm.ScanByType(context.Background(), model.TransportSerial); !errors.Is(err, model.ErrUnsupportedTransport) {
		t.Errorf("Expected ErrUnsupportedTransport, got %v", err)
	}

	available := sm.GetAvailableScanners()
	if len(available) != 1 || available[0] != model.TransportUSB {
		t.Errorf("Unexpected available scanners %v", available)
	}
}

func TestScanAllReportsFailingScanner(t *testing.T) {
	sm := NewScannerManager(nil, zaptest.NewLogger(t))
	sm.RegisterScanner(&fakeScanner{kind: model.TransportUSB, available: true, err: errors.New("libusb busy")})
	sm.RegisterScanner(&fakeScanner{
		kind:      model.TransportSerial,
		available: true,
		devices:   []model.PrinterDevice{{ID: "serial:/dev/ttyS0", TransportKind: model.TransportSerial}},
	})

	devices, err := sm.ScanAll(context.Background())

	var scanErr *model.ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("Expected *model.ScanError, got %v", err)
	}
	if !scanErr.Failed(model.TransportUSB) || scanErr.Failed(model.TransportSerial) {
		t.Errorf("Expected only usb to be reported failed, got %v", scanErr)
	}
	if len(devices) != 1 {
		t.Errorf("Expected serial device despite usb failure, got %d", len(devices))
	}
}
