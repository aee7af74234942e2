// internal/protocol/usb_transport.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

const defaultUSBPacketSize = 64

// USBTransport implements Transport over a USB bulk OUT endpoint
type USBTransport struct {
	logger            *zap.Logger
	writeTimeout      time.Duration
	defaultPacketSize int
	stats             statsRecorder
}

// NewUSBTransport creates a new USB transport
func NewUSBTransport(writeTimeout time.Duration, defaultPacketSize int, logger *zap.Logger) *USBTransport {
	if defaultPacketSize <= 0 {
		defaultPacketSize = defaultUSBPacketSize
	}
	return &USBTransport{
		logger:            logger.With(zap.String("protocol", "usb")),
		writeTimeout:      writeTimeout,
		defaultPacketSize: defaultPacketSize,
	}
}

// Kind returns the transport kind
func (ut *USBTransport) Kind() model.TransportKind {
	return model.TransportUSB
}

// Available reports whether libusb can be initialised on this host
func (ut *USBTransport) Available() (ok bool) {
	// gousb panics when libusb_init fails
	defer func() {
		if r := recover(); r != nil {
			ut.logger.Debug("libusb unavailable", zap.Any("reason", r))
			ok = false
		}
	}()

	usbCtx := gousb.NewContext()
	usbCtx.Close()
	return true
}

// Open claims interface 0 of the first device matching the descriptor's VID/PID
func (ut *USBTransport) Open(ctx context.Context, device model.PrinterDevice) (Handle, error) {
	if device.VendorID == nil || device.ProductID == nil {
		return nil, model.NewTransportError(model.TransportUSB, device.ID, "open",
			fmt.Errorf("%w: missing vendor or product id", model.ErrValidation), false)
	}

	vendorID := gousb.ID(*device.VendorID)
	productID := gousb.ID(*device.ProductID)

	logger := ut.logger.With(
		zap.String("device_id", device.ID),
		zap.String("vendor_id", vendorID.String()),
		zap.String("product_id", productID.String()),
	)
	logger.Info("Opening USB connection")

	usbCtx := gousb.NewContext()

	dev, err := ut.findAndOpenDevice(usbCtx, vendorID, productID)
	if err != nil {
		usbCtx.Close()
		return nil, model.NewTransportError(model.TransportUSB, device.ID, "open", err, isUSBGone(err))
	}

	handle, err := ut.claim(dev)
	if err != nil {
		dev.Close()
		usbCtx.Close()
		logger.Error("Failed to claim USB interface", zap.Error(err))
		return nil, model.NewTransportError(model.TransportUSB, device.ID, "open", err, isUSBGone(err))
	}
	handle.deviceID = device.ID
	handle.usbCtx = usbCtx

	ut.stats.opened()
	logger.Info("USB connection opened successfully", zap.Int("packet_size", handle.packetSize))
	return handle, nil
}

// Write sends data in chunks no larger than the endpoint's max packet size
func (ut *USBTransport) Write(ctx context.Context, h Handle, data []byte) error {
	handle, ok := h.(*USBHandle)
	if !ok || handle == nil {
		return fmt.Errorf("%w: handle is not a USB handle", model.ErrUnsupportedTransport)
	}
	if handle.out == nil {
		return model.NewTransportError(model.TransportUSB, handle.deviceID, "write", model.ErrNotConnected, false)
	}

	startTime := time.Now()
	w := &timeoutWriter{out: handle.out, timeout: ut.writeTimeout}
	n, err := writeChunked(ctx, w, data, handle.packetSize)
	if err != nil {
		ut.stats.failed()
		ut.logger.Error("USB write failed",
			zap.String("device_id", handle.deviceID),
			zap.Int("written", n),
			zap.Int("total", len(data)),
			zap.Error(err),
		)
		return model.NewTransportError(model.TransportUSB, handle.deviceID, "write", err, isUSBGone(err))
	}

	ut.stats.written(n, time.Since(startTime))
	ut.logger.Debug("USB write completed", zap.String("device_id", handle.deviceID), zap.Int("bytes", n))
	return nil
}

// Close releases the interface, configuration, device and libusb context
func (ut *USBTransport) Close(h Handle) error {
	handle, ok := h.(*USBHandle)
	if !ok || handle == nil {
		return fmt.Errorf("%w: handle is not a USB handle", model.ErrUnsupportedTransport)
	}

	var errs []error
	if handle.intf != nil {
		handle.intf.Close()
		handle.intf = nil
	}
	if handle.config != nil {
		if err := handle.config.Close(); err != nil {
			errs = append(errs, err)
		}
		handle.config = nil
	}
	if handle.device != nil {
		if err := handle.device.Close(); err != nil {
			errs = append(errs, err)
		}
		handle.device = nil
	}
	if handle.usbCtx != nil {
		if err := handle.usbCtx.Close(); err != nil {
			errs = append(errs, err)
		}
		handle.usbCtx = nil
	}
	handle.out = nil

	ut.stats.closed()
	ut.logger.Info("USB connection closed", zap.String("device_id", handle.deviceID))

	if err := errors.Join(errs...); err != nil {
		return model.NewTransportError(model.TransportUSB, handle.deviceID, "close", err, isUSBGone(err))
	}
	return nil
}

// Stats returns a snapshot of the transport statistics
func (ut *USBTransport) Stats() ProtocolStats {
	return ut.stats.snapshot()
}

// findAndOpenDevice opens the first device matching vendorID/productID
func (ut *USBTransport) findAndOpenDevice(usbCtx *gousb.Context, vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: USB device not found (VID: %s, PID: %s)",
			model.ErrDeviceGone, vendorID, productID)
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		ut.logger.Warn("Multiple matching USB devices found, using first one",
			zap.Int("count", len(devices)))
	}

	return devices[0], nil
}

// claim selects a configuration, claims interface 0 and finds the bulk OUT endpoint
func (ut *USBTransport) claim(dev *gousb.Device) (*USBHandle, error) {
	if err := dev.SetAutoDetach(true); err != nil {
		ut.logger.Debug("Kernel driver auto-detach not supported", zap.Error(err))
	}

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil || cfgNum == 0 {
		cfgNum = 1
	}

	cfg, err := dev.Config(cfgNum)
	if err != nil {
		return nil, fmt.Errorf("failed to select configuration %d: %w", cfgNum, err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	desc, ok := firstBulkOut(intf.Setting.Endpoints)
	if !ok {
		intf.Close()
		cfg.Close()
		return nil, model.ErrNoEndpoint
	}

	out, err := intf.OutEndpoint(desc.Number)
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, fmt.Errorf("failed to get out endpoint: %w", err)
	}

	packetSize := out.Desc.MaxPacketSize
	if packetSize <= 0 {
		packetSize = ut.defaultPacketSize
	}

	return &USBHandle{
		device:     dev,
		config:     cfg,
		intf:       intf,
		out:        out,
		packetSize: packetSize,
	}, nil
}

// firstBulkOut returns the bulk OUT endpoint with the lowest address
func firstBulkOut(endpoints map[gousb.EndpointAddress]gousb.EndpointDesc) (gousb.EndpointDesc, bool) {
	addrs := make([]int, 0, len(endpoints))
	for addr := range endpoints {
		addrs = append(addrs, int(addr))
	}
	sort.Ints(addrs)

	for _, addr := range addrs {
		ep := endpoints[gousb.EndpointAddress(addr)]
		if ep.Direction == gousb.EndpointDirectionOut && ep.TransferType == gousb.TransferTypeBulk {
			return ep, true
		}
	}
	return gousb.EndpointDesc{}, false
}

// isUSBGone classifies libusb errors that mean the device left the bus
func isUSBGone(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, gousb.ErrorNoDevice),
		errors.Is(err, gousb.ErrorIO),
		errors.Is(err, gousb.ErrorPipe),
		errors.Is(err, gousb.TransferNoDevice):
		return true
	}
	return looksGone(err)
}

// timeoutWriter bounds every chunk by the configured write timeout
type timeoutWriter struct {
	out     *gousb.OutEndpoint
	timeout time.Duration
}

func (w *timeoutWriter) WriteContext(ctx context.Context, buf []byte) (int, error) {
	if w.timeout <= 0 {
		return w.out.WriteContext(ctx, buf)
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	return w.out.WriteContext(ctx, buf)
}
