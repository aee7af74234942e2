// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"printer-service/internal/discovery"
	"printer-service/internal/model"
)

// PortLister returns the host's serial ports with their USB identity
type PortLister func() ([]*enumerator.PortDetails, error)

// Scanner implements serial port enumeration
type Scanner struct {
	logger  *zap.Logger
	vendors *discovery.VendorDatabase
	list    PortLister

	mu sync.Mutex
	// VID/PID ids ever seen on more than one port
	shared map[string]bool
}

// NewScanner creates a new serial scanner
func NewScanner(vendors *discovery.VendorDatabase, logger *zap.Logger) *Scanner {
	return NewScannerWithLister(vendors, enumerator.GetDetailedPortsList, logger)
}

// NewScannerWithLister creates a serial scanner backed by a custom port lister
func NewScannerWithLister(vendors *discovery.VendorDatabase, list PortLister, logger *zap.Logger) *Scanner {
	if vendors == nil {
		vendors = discovery.NewVendorDatabase()
	}
	return &Scanner{
		logger:  logger.With(zap.String("scanner", "serial")),
		vendors: vendors,
		list:    list,
		shared:  make(map[string]bool),
	}
}

// Kind returns the transport the scanner enumerates
func (s *Scanner) Kind() model.TransportKind {
	return model.TransportSerial
}

// IsAvailable checks if serial ports can be enumerated
func (s *Scanner) IsAvailable() bool {
	if _, err := s.list(); err != nil {
		s.logger.Debug("Serial enumeration unavailable", zap.Error(err))
		return false
	}
	return true
}

// Scan performs serial port discovery. Nothing is opened; every port the
// host exposes is reported.
func (s *Scanner) Scan(ctx context.Context) ([]model.PrinterDevice, error) {
	ports, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	devices := make([]model.PrinterDevice, 0, len(ports))
	perID := make(map[string]int, len(ports))

	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		device := s.toDevice(port)
		perID[device.ID]++
		devices = append(devices, device)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range perID {
		if n > 1 && !s.shared[id] {
			s.logger.Warn("Serial adapters share an id, keying them by port",
				zap.String("device_id", id),
				zap.Int("ports", n),
			)
			s.shared[id] = true
		}
	}

	// an ambiguous VID/PID stays keyed by port path even after its twin is
	// unplugged, so the remaining adapter never inherits the shared id
	for i := range devices {
		if s.shared[devices[i].ID] {
			devices[i].ID = model.SerialDeviceID(nil, nil, devices[i].Port)
		}
	}

	s.logger.Debug("Serial scan completed", zap.Int("devices_found", len(devices)))
	return devices, nil
}

func (s *Scanner) toDevice(port *enumerator.PortDetails) model.PrinterDevice {
	device := model.PrinterDevice{
		TransportKind: model.TransportSerial,
		Port:          port.Name,
		Product:       strings.TrimSpace(port.Product),
		SerialNumber:  port.SerialNumber,
	}

	if port.IsUSB {
		vendorID, vErr := parseHexID(port.VID)
		productID, pErr := parseHexID(port.PID)
		if vErr == nil && pErr == nil {
			device.VendorID = model.Uint16(vendorID)
			device.ProductID = model.Uint16(productID)
			if vendor := s.vendors.GetVendorInfo(vendorID); vendor != nil {
				device.Manufacturer = vendor.Name
			}
		} else {
			s.logger.Debug("Invalid USB identity on serial port",
				zap.String("port", port.Name),
				zap.String("vid", port.VID),
				zap.String("pid", port.PID),
			)
		}
	}

	device.ID = model.SerialDeviceID(device.VendorID, device.ProductID, port.Name)
	device.DisplayName = displayName(device)
	return device
}

func displayName(device model.PrinterDevice) string {
	switch {
	case device.Product != "":
		return fmt.Sprintf("%s (%s)", device.Product, device.Port)
	case device.Manufacturer != "":
		return fmt.Sprintf("%s (%s)", device.Manufacturer, device.Port)
	default:
		return "Serial " + device.Port
	}
}

// parseHexID parses hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (uint16, error) {
	hexStr = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(hexStr)), "0x")
	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}
