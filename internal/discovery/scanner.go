// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// DeviceScanner enumerates printers already exposed by the host for one transport
type DeviceScanner interface {
	Scan(ctx context.Context) ([]model.PrinterDevice, error)
	Kind() model.TransportKind
	IsAvailable() bool
}

// ScannerManager manages all device scanners
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[model.TransportKind]DeviceScanner
	vendors  *VendorDatabase
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(vendors *VendorDatabase, logger *zap.Logger) *ScannerManager {
	if vendors == nil {
		vendors = NewVendorDatabase()
	}
	return &ScannerManager{
		scanners: make(map[model.TransportKind]DeviceScanner),
		vendors:  vendors,
		logger:   logger,
	}
}

// RegisterScanner registers a device scanner
func (sm *ScannerManager) RegisterScanner(scanner DeviceScanner) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	kind := scanner.Kind()
	sm.scanners[kind] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", string(kind)))
}

// ScanAll scans every available transport. A failing scanner does not stop
// the others; its transport is reported in a *model.ScanError next to the
// devices that were found.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]model.PrinterDevice, error) {
	var allDevices []model.PrinterDevice
	failures := make(map[model.TransportKind]error)

	for _, scanner := range sm.sortedScanners() {
		kind := scanner.Kind()
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", string(kind)))
			continue
		}

		devices, err := scanner.Scan(ctx)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", string(kind)), zap.Error(err))
			failures[kind] = err
			continue
		}

		allDevices = append(allDevices, devices...)
		sm.logger.Debug("Scanner completed",
			zap.String("type", string(kind)),
			zap.Int("devices_found", len(devices)),
		)
	}

	if len(failures) > 0 {
		return allDevices, &model.ScanError{Failures: failures}
	}
	return allDevices, nil
}

// ScanByType scans one transport
func (sm *ScannerManager) ScanByType(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error) {
	sm.mu.RLock()
	scanner, exists := sm.scanners[kind]
	sm.mu.RUnlock()

	if !exists || !scanner.IsAvailable() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedTransport, kind)
	}

	devices, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s scan failed: %w", kind, err)
	}
	return devices, nil
}

// Candidates returns the devices of one transport that should be offered for connection
func (sm *ScannerManager) Candidates(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error) {
	devices, err := sm.ScanByType(ctx, kind)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.PrinterDevice, 0, len(devices))
	for _, device := range devices {
		if sm.vendors.IsPrinterCandidate(device) {
			candidates = append(candidates, device)
		}
	}
	return candidates, nil
}

// IsAvailable reports whether a scanner for kind is registered and usable
func (sm *ScannerManager) IsAvailable(kind model.TransportKind) bool {
	sm.mu.RLock()
	scanner, exists := sm.scanners[kind]
	sm.mu.RUnlock()
	return exists && scanner.IsAvailable()
}

// GetAvailableScanners returns list of available scanner types
func (sm *ScannerManager) GetAvailableScanners() []model.TransportKind {
	var available []model.TransportKind
	for _, scanner := range sm.sortedScanners() {
		if scanner.IsAvailable() {
			available = append(available, scanner.Kind())
		}
	}
	return available
}

func (sm *ScannerManager) sortedScanners() []DeviceScanner {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	scanners := make([]DeviceScanner, 0, len(sm.scanners))
	for _, s := range sm.scanners {
		scanners = append(scanners, s)
	}
	sort.Slice(scanners, func(i, j int) bool { return scanners[i].Kind() < scanners[j].Kind() })
	return scanners
}
