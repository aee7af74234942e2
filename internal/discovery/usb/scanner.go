// internal/discovery/usb/scanner.go
package usb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
)

const (
	USBClassPrinter    = gousb.ClassPrinter
	USBClassVendorSpec = gousb.ClassVendorSpec
)

// Scanner implements USB printer enumeration
type Scanner struct {
	logger  *zap.Logger
	vendors *discovery.VendorDatabase
	config  *Config
}

// Config for USB scanner
type Config struct {
	ScanTimeout time.Duration `json:"scan_timeout"`
	EnableDebug bool          `json:"enable_debug"`
}

// NewScanner creates a new USB scanner
func NewScanner(vendors *discovery.VendorDatabase, logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{ScanTimeout: 10 * time.Second}
	}
	if vendors == nil {
		vendors = discovery.NewVendorDatabase()
	}

	return &Scanner{
		logger:  logger.With(zap.String("scanner", "usb")),
		vendors: vendors,
		config:  config,
	}
}

// Kind returns the transport the scanner enumerates
func (s *Scanner) Kind() model.TransportKind {
	return model.TransportUSB
}

// IsAvailable checks if libusb can be initialised on this system
func (s *Scanner) IsAvailable() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("USB scanning unavailable", zap.Any("reason", r))
			ok = false
		}
	}()

	testCtx := gousb.NewContext()
	testCtx.Close()
	return true
}

// Scan lists printers currently attached. It never claims interfaces, so
// devices in use by a live handle are reported too.
func (s *Scanner) Scan(ctx context.Context) ([]model.PrinterDevice, error) {
	startTime := time.Now()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			s.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	if s.config.EnableDebug {
		usbCtx.Debug(3)
	}

	devices, err := usbCtx.OpenDevices(s.shouldExamineDevice)
	defer s.closeAllDevices(devices)
	if err != nil {
		// devices that could not be opened are skipped, the rest are still usable
		s.logger.Debug("Some USB devices could not be opened", zap.Error(err))
	}

	var discovered []model.PrinterDevice
	for _, device := range devices {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return discovered, ctxErr
		}
		if printer, ok := s.processDevice(device); ok {
			discovered = append(discovered, printer)
		}
	}

	discovered = dedupe(discovered)

	s.logger.Debug("USB scan completed",
		zap.Int("devices_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return discovered, nil
}

// shouldExamineDevice opens known vendors, printer class devices and
// vendor-specific devices whose strings may still identify a printer
func (s *Scanner) shouldExamineDevice(desc *gousb.DeviceDesc) bool {
	if s.vendors.IsKnownVendor(uint16(desc.Vendor)) {
		return true
	}
	return hasClass(desc, USBClassPrinter) || hasClass(desc, USBClassVendorSpec)
}

// processDevice builds a PrinterDevice when the device qualifies as a printer
func (s *Scanner) processDevice(device *gousb.Device) (model.PrinterDevice, bool) {
	desc := device.Desc
	if desc == nil {
		return model.PrinterDevice{}, false
	}

	manufacturer := s.readString(device, device.Manufacturer)
	product := s.readString(device, device.Product)

	vendorID := uint16(desc.Vendor)
	productID := uint16(desc.Product)

	known := s.vendors.IsKnownVendor(vendorID)
	if !known && !hasClass(desc, USBClassPrinter) && !discovery.LooksLikePrinter(manufacturer, product) {
		s.logger.Debug("Device not identified as printer",
			zap.String("vendor_id", fmt.Sprintf("0x%04X", vendorID)),
			zap.String("product_id", fmt.Sprintf("0x%04X", productID)),
		)
		return model.PrinterDevice{}, false
	}

	return model.PrinterDevice{
		ID:            model.USBDeviceID(vendorID, productID),
		DisplayName:   s.displayName(vendorID, productID, manufacturer, product),
		TransportKind: model.TransportUSB,
		VendorID:      model.Uint16(vendorID),
		ProductID:     model.Uint16(productID),
		Manufacturer:  manufacturer,
		Product:       product,
		SerialNumber:  s.readString(device, device.SerialNumber),
	}, true
}

// displayName prefers the product string, then the known model, then VID:PID
func (s *Scanner) displayName(vendorID, productID uint16, manufacturer, product string) string {
	if product != "" {
		if manufacturer != "" && !strings.Contains(product, manufacturer) {
			return manufacturer + " " + product
		}
		return product
	}

	if vendor := s.vendors.GetVendorInfo(vendorID); vendor != nil {
		if name := vendor.ProductName(productID); name != "" {
			return vendor.Name + " " + name
		}
		return fmt.Sprintf("%s %04X", vendor.Name, productID)
	}

	return fmt.Sprintf("USB Printer %04X:%04X", vendorID, productID)
}

// readString reads a string descriptor, tolerating devices that refuse it
func (s *Scanner) readString(device *gousb.Device, read func() (string, error)) string {
	str, err := read()
	if err != nil {
		s.logger.Debug("Failed to read string descriptor",
			zap.String("device", device.String()),
			zap.Error(err),
		)
		return ""
	}
	return strings.TrimSpace(str)
}

// closeAllDevices safely closes all opened USB devices
func (s *Scanner) closeAllDevices(devices []*gousb.Device) {
	for i, device := range devices {
		if device == nil {
			continue
		}
		if err := device.Close(); err != nil {
			s.logger.Warn("Failed to close USB device",
				zap.Int("device_index", i),
				zap.Error(err),
			)
		}
	}
}

// hasClass checks the device class and every interface alt setting
func hasClass(desc *gousb.DeviceDesc, class gousb.Class) bool {
	if desc.Class == class {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == class {
					return true
				}
			}
		}
	}
	return false
}

// dedupe keeps the first device per id
func dedupe(devices []model.PrinterDevice) []model.PrinterDevice {
	seen := make(map[string]bool, len(devices))
	unique := devices[:0]
	for _, device := range devices {
		if seen[device.ID] {
			continue
		}
		seen[device.ID] = true
		unique = append(unique, device)
	}
	return unique
}
