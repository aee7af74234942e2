// internal/registry/monitor.go
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// HostEventHandler consumes attach/detach notifications
type HostEventHandler interface {
	HandleHostEvent(event model.HostEvent)
}

// DeviceLister enumerates every printer the host exposes
type DeviceLister interface {
	ScanAll(ctx context.Context) ([]model.PrinterDevice, error)
}

// Monitor turns periodic scans into host attach/detach events. libusb offers
// no portable hot-plug callback, so the device set is diffed on a ticker.
type Monitor struct {
	lister   DeviceLister
	handler  HostEventHandler
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	previous map[string]model.PrinterDevice
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewMonitor creates a new printer monitor
func NewMonitor(lister DeviceLister, handler HostEventHandler, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		lister:   lister,
		handler:  handler,
		interval: interval,
		logger:   logger.With(zap.String("component", "device_monitor")),
	}
}

// Start begins monitoring for printer changes. The first scan only seeds
// the known set.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	m.CheckChanges(ctx)

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckChanges(ctx)
			}
		}
	}()

	m.logger.Info("Device monitor started", zap.Duration("interval", m.interval))
}

// Stop stops the monitor and waits for the loop to exit
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.logger.Info("Device monitor stopped")
}

// CheckChanges scans once and emits events for the differences with the last scan
func (m *Monitor) CheckChanges(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices, err := m.lister.ScanAll(ctx)

	var scanErr *model.ScanError
	if err != nil && !errors.As(err, &scanErr) {
		m.logger.Warn("Printer detection failed", zap.Error(err))
		return
	}
	if scanErr != nil {
		m.logger.Warn("Printer detection incomplete", zap.Error(scanErr))
	}

	current := make(map[string]model.PrinterDevice, len(devices))
	for _, d := range devices {
		current[d.ID] = d
	}

	// a transport that failed to scan keeps its last known devices
	if scanErr != nil {
		for id, d := range m.previous {
			if scanErr.Failed(d.TransportKind) {
				current[id] = d
			}
		}
	}

	// first run seeds the known set
	if m.previous == nil {
		m.previous = current
		return
	}

	for id, device := range current {
		if _, exists := m.previous[id]; !exists {
			m.logger.Info("Printer attached", zap.String("device_id", id))
			m.handler.HandleHostEvent(model.HostEvent{Type: model.HostDeviceAttached, Device: device})
		}
	}

	for id, device := range m.previous {
		if _, exists := current[id]; !exists {
			m.logger.Info("Printer removed", zap.String("device_id", id))
			m.handler.HandleHostEvent(model.HostEvent{Type: model.HostDeviceDetached, Device: device})
		}
	}

	m.previous = current
}
