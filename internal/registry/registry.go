// internal/registry/registry.go
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/protocol"
)

// MaxReconnectAttempts is the ceiling after which automatic reconnection stops
// until the operator connects the device again
const MaxReconnectAttempts = 3

// Scanner is the part of discovery the registry depends on
type Scanner interface {
	ScanByType(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error)
	Candidates(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error)
}

// EventPublisher receives device lifecycle events
type EventPublisher interface {
	Publish(event model.DeviceEvent)
}

// Scheduler runs fn after delay; time.AfterFunc in production
type Scheduler func(delay time.Duration, fn func())

// Option configures a Registry
type Option func(*Registry)

// WithEvents sets the event publisher
func WithEvents(events EventPublisher) Option {
	return func(r *Registry) { r.events = events }
}

// WithScheduler replaces the reconnect scheduler
func WithScheduler(schedule Scheduler) Option {
	return func(r *Registry) { r.schedule = schedule }
}

// WithReconnectDelay sets the delay before a scheduled reconnect
func WithReconnectDelay(delay time.Duration) Option {
	return func(r *Registry) { r.reconnectDelay = delay }
}

// entry is the state of one device. Its mutex serialises open, write and
// close on the device; the registry map lock only guards membership.
type entry struct {
	mu        sync.Mutex
	device    model.PrinterDevice
	handle    protocol.Handle
	attempts  int
	lastErr   error
	forgotten bool
}

// Registry tracks live printer handles and reconnects them within a bounded budget
type Registry struct {
	mu             sync.RWMutex
	entries        map[string]*entry
	transports     map[model.TransportKind]protocol.Transport
	scanner        Scanner
	events         EventPublisher
	schedule       Scheduler
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// New creates a registry over the given transports
func New(transports []protocol.Transport, scanner Scanner, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		entries:        make(map[string]*entry),
		transports:     make(map[model.TransportKind]protocol.Transport, len(transports)),
		scanner:        scanner,
		events:         nopPublisher{},
		reconnectDelay: time.Second,
		logger:         logger.With(zap.String("component", "device_registry")),
	}
	r.schedule = func(delay time.Duration, fn func()) { time.AfterFunc(delay, fn) }

	for _, t := range transports {
		r.transports[t.Kind()] = t
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Support reports which transports the host can drive
func (r *Registry) Support() model.Capabilities {
	caps := model.Capabilities{}
	if t, ok := r.transports[model.TransportUSB]; ok {
		caps.USBAvailable = t.Available()
	}
	if t, ok := r.transports[model.TransportSerial]; ok {
		caps.SerialAvailable = t.Available()
	}
	caps.Supported = caps.USBAvailable || caps.SerialAvailable
	return caps
}

// Discover lists printers the host already exposes for kind, without
// opening any of them
func (r *Registry) Discover(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error) {
	if _, err := r.availableTransport(kind); err != nil {
		return nil, err
	}

	devices, err := r.scanner.ScanByType(ctx, kind)
	if err != nil {
		return nil, err
	}

	for i := range devices {
		devices[i].Connected = r.isLive(devices[i].ID)
	}
	return devices, nil
}

// Connect lets picker choose among the printer candidates for kind, opens it
// and registers the live handle
func (r *Registry) Connect(ctx context.Context, kind model.TransportKind, picker Picker) (model.PrinterDevice, error) {
	transport, err := r.availableTransport(kind)
	if err != nil {
		return model.PrinterDevice{}, err
	}

	candidates, err := r.scanner.Candidates(ctx, kind)
	if err != nil {
		return model.PrinterDevice{}, err
	}
	if len(candidates) == 0 {
		return model.PrinterDevice{}, fmt.Errorf("%w: no %s printer available", model.ErrDeviceNotFound, kind)
	}

	if picker == nil {
		picker = FirstCandidate()
	}
	device, err := picker.Pick(candidates)
	if err != nil {
		return model.PrinterDevice{}, err
	}

	e := r.entryFor(device)
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := r.logger.With(zap.String("device_id", device.ID))

	if e.handle != nil {
		logger.Debug("Device already connected")
		return e.device, nil
	}

	h, err := transport.Open(ctx, device)
	if err != nil {
		e.lastErr = err
		logger.Error("Failed to connect printer", zap.Error(err))
		return model.PrinterDevice{}, err
	}

	r.markLive(e, device, h)
	logger.Info("Printer connected", zap.String("display_name", device.DisplayName))
	return e.device, nil
}

// Disconnect closes the handle if open and forgets the device. The entry
// stays, so neither a print nor a host attach reopens the device and its
// reconnect budget is kept until the operator connects it again.
func (r *Registry) Disconnect(ctx context.Context, deviceID string) error {
	r.mu.RLock()
	e, exists := r.entries[deviceID]
	r.mu.RUnlock()

	if !exists {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.forgotten = true
	if e.handle == nil {
		return nil
	}

	err := r.closeHandle(e)
	r.publish(model.EventDeviceDisconnected, e, "operator disconnect", 0)
	r.logger.Info("Printer disconnected", zap.String("device_id", deviceID))
	return err
}

// Status reports the device state. A device without a live handle gets one
// reconnect attempt while the attempt budget allows it.
func (r *Registry) Status(ctx context.Context, deviceID string) model.DeviceStatus {
	e, err := r.lookup(ctx, deviceID)
	if err != nil {
		return model.DeviceStatusDisconnected
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle != nil {
		return model.DeviceStatusConnected
	}
	if e.forgotten {
		return model.DeviceStatusDisconnected
	}

	if e.attempts < MaxReconnectAttempts {
		if err := r.reconnectLocked(ctx, e); err == nil {
			return model.DeviceStatusConnected
		}
	}

	if e.attempts >= MaxReconnectAttempts && e.lastErr != nil {
		return model.DeviceStatusError
	}
	return model.DeviceStatusDisconnected
}

// Write sends data to the device, reconnecting first if needed. A failure
// meaning the device went away evicts the handle and schedules one reconnect.
func (r *Registry) Write(ctx context.Context, deviceID string, data []byte) error {
	e, err := r.lookup(ctx, deviceID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle == nil {
		if e.forgotten {
			return fmt.Errorf("%w: %s was disconnected by the operator", model.ErrNotConnected, deviceID)
		}
		if err := r.reconnectLocked(ctx, e); err != nil {
			return fmt.Errorf("%w: %s: %w", model.ErrNotConnected, deviceID, err)
		}
	}

	transport, ok := r.transports[e.handle.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedTransport, e.handle.Kind())
	}

	err = transport.Write(ctx, e.handle, data)
	if err == nil {
		return nil
	}

	e.lastErr = err
	if model.IsDeviceGone(err) {
		r.logger.Warn("Printer went away during write",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		r.closeHandle(e)
		r.publish(model.EventWriteFailed, e, err.Error(), 0)
		r.publish(model.EventDeviceDisconnected, e, "write failed", 0)
		r.scheduleReconnect(e)
	}
	return err
}

// HandleHostEvent applies an attach/detach notification from the host
func (r *Registry) HandleHostEvent(event model.HostEvent) {
	r.mu.RLock()
	e, exists := r.entries[event.Device.ID]
	r.mu.RUnlock()

	if !exists {
		return
	}

	switch event.Type {
	case model.HostDeviceDetached:
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.handle == nil {
			return
		}
		r.closeHandle(e)
		r.publish(model.EventDeviceDisconnected, e, "device detached", 0)
		r.logger.Info("Printer detached", zap.String("device_id", event.Device.ID))

	case model.HostDeviceAttached:
		e.mu.Lock()
		live := e.handle != nil
		forgotten := e.forgotten
		if !live && !forgotten {
			// the port may have moved
			e.device = mergeDescriptor(e.device, event.Device)
		}
		e.mu.Unlock()

		if !live && !forgotten {
			r.schedule(0, func() { r.reconnect(e) })
		}
	}
}

// LiveDevices returns the devices with an open handle
func (r *Registry) LiveDevices() []model.PrinterDevice {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var live []model.PrinterDevice
	for _, e := range entries {
		e.mu.Lock()
		if e.handle != nil {
			live = append(live, e.device)
		}
		e.mu.Unlock()
	}

	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	return live
}

// Attempts returns the reconnect attempt counter of a device
func (r *Registry) Attempts(deviceID string) int {
	r.mu.RLock()
	e, exists := r.entries[deviceID]
	r.mu.RUnlock()
	if !exists {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts
}

// Close closes every open handle
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		e.mu.Lock()
		e.forgotten = true
		if e.handle != nil {
			if err := r.closeHandle(e); err != nil {
				errs = append(errs, err)
			}
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}

// lookup returns the entry for a device id. An id the registry has not seen
// yet, such as one from a saved config after a restart, only gets an entry
// when a scan of its transport shows the device attached.
func (r *Registry) lookup(ctx context.Context, deviceID string) (*entry, error) {
	kind, ok := model.TransportOf(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, deviceID)
	}

	r.mu.RLock()
	e, exists := r.entries[deviceID]
	r.mu.RUnlock()
	if exists {
		return e, nil
	}

	if r.scanner == nil {
		return nil, fmt.Errorf("%w: %w: %s", model.ErrNotConnected, model.ErrDeviceNotFound, deviceID)
	}
	devices, err := r.scanner.ScanByType(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrNotConnected, deviceID, err)
	}
	for _, d := range devices {
		if d.ID == deviceID {
			return r.entryFor(d), nil
		}
	}
	return nil, fmt.Errorf("%w: %w: %s is not attached", model.ErrNotConnected, model.ErrDeviceNotFound, deviceID)
}

func (r *Registry) entryFor(device model.PrinterDevice) *entry {
	r.mu.RLock()
	e, exists := r.entries[device.ID]
	r.mu.RUnlock()
	if exists {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.entries[device.ID]; exists {
		return e
	}

	device.Connected = false
	if device.DisplayName == "" {
		device.DisplayName = device.ID
	}
	e = &entry{device: device}
	r.entries[device.ID] = e
	return e
}

func (r *Registry) isLive(deviceID string) bool {
	r.mu.RLock()
	e, exists := r.entries[deviceID]
	r.mu.RUnlock()
	if !exists {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle != nil
}

func (r *Registry) availableTransport(kind model.TransportKind) (protocol.Transport, error) {
	t, ok := r.transports[kind]
	if !ok || !t.Available() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedTransport, kind)
	}
	return t, nil
}

// scheduleReconnect queues exactly one reconnect attempt unless the budget is spent
func (r *Registry) scheduleReconnect(e *entry) {
	if e.attempts >= MaxReconnectAttempts {
		return
	}
	r.schedule(r.reconnectDelay, func() { r.reconnect(e) })
}

func (r *Registry) reconnect(e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.forgotten || e.handle != nil {
		return
	}
	if err := r.reconnectLocked(context.Background(), e); err != nil {
		r.logger.Debug("Scheduled reconnect failed",
			zap.String("device_id", e.device.ID),
			zap.Int("attempt", e.attempts),
			zap.Error(err),
		)
	}
}

// reconnectLocked performs one reconnect attempt; e.mu must be held
func (r *Registry) reconnectLocked(ctx context.Context, e *entry) error {
	if e.attempts >= MaxReconnectAttempts {
		return fmt.Errorf("reconnect abandoned after %d attempts", e.attempts)
	}

	transport, ok := r.transports[e.device.TransportKind]
	if !ok || !transport.Available() {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedTransport, e.device.TransportKind)
	}

	e.attempts++
	attempt := e.attempts

	device, err := r.locate(ctx, e.device)
	var h protocol.Handle
	if err == nil {
		h, err = transport.Open(ctx, device)
	}

	if err != nil {
		e.lastErr = err
		r.publish(model.EventReconnectFailed, e, err.Error(), attempt)
		if e.attempts >= MaxReconnectAttempts {
			r.publish(model.EventReconnectAbandoned, e, err.Error(), attempt)
			r.logger.Warn("Reconnect abandoned",
				zap.String("device_id", e.device.ID),
				zap.Int("attempts", e.attempts),
				zap.Error(err),
			)
		}
		return err
	}

	r.markLive(e, device, h)
	r.logger.Info("Printer reconnected", zap.String("device_id", device.ID), zap.Int("attempt", attempt))
	return nil
}

// locate refreshes a descriptor from a silent scan, since serial ports can be
// renumbered between attachments
func (r *Registry) locate(ctx context.Context, known model.PrinterDevice) (model.PrinterDevice, error) {
	if r.scanner == nil {
		return known, nil
	}

	devices, err := r.scanner.ScanByType(ctx, known.TransportKind)
	if err != nil {
		if addressable(known) {
			return known, nil
		}
		return known, err
	}

	for _, d := range devices {
		if d.ID == known.ID {
			return mergeDescriptor(known, d), nil
		}
	}
	return known, fmt.Errorf("%w: %s is not attached", model.ErrDeviceNotFound, known.ID)
}

func (r *Registry) markLive(e *entry, device model.PrinterDevice, h protocol.Handle) {
	device.Connected = true
	e.device = device
	e.handle = h
	e.attempts = 0
	e.lastErr = nil
	e.forgotten = false
	r.publish(model.EventDeviceConnected, e, "", 0)
}

// closeHandle drops the live handle; close errors are logged and returned
func (r *Registry) closeHandle(e *entry) error {
	h := e.handle
	e.handle = nil
	e.device.Connected = false

	transport, ok := r.transports[h.Kind()]
	if !ok {
		return nil
	}
	if err := transport.Close(h); err != nil {
		r.logger.Debug("Closing handle failed", zap.String("device_id", e.device.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Registry) publish(eventType model.EventType, e *entry, reason string, attempt int) {
	event := model.NewDeviceEvent(eventType, e.device.ID, e.device.TransportKind)
	event.Reason = reason
	event.Attempt = attempt
	r.events.Publish(event)
}

func addressable(d model.PrinterDevice) bool {
	switch d.TransportKind {
	case model.TransportUSB:
		return d.VendorID != nil && d.ProductID != nil
	case model.TransportSerial:
		return d.Port != ""
	}
	return false
}

// mergeDescriptor takes fresh addressing from seen and keeps known labels
func mergeDescriptor(known, seen model.PrinterDevice) model.PrinterDevice {
	merged := seen
	merged.ID = known.ID
	if merged.DisplayName == "" || merged.DisplayName == merged.ID {
		merged.DisplayName = known.DisplayName
	}
	if merged.TransportKind == "" {
		merged.TransportKind = known.TransportKind
	}
	return merged
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.DeviceEvent) {}
