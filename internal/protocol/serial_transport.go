// internal/protocol/serial_transport.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

// SerialConfig represents serial line settings
type SerialConfig struct {
	BaudRate int `json:"baud_rate"`
	DataBits int `json:"data_bits"`
}

// DefaultSerialConfig is 9600 baud, 8N1
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{BaudRate: 9600, DataBits: 8}
}

// PortOpener opens a serial port; serial.Open in production
type PortOpener func(name string, mode *serial.Mode) (serial.Port, error)

// SerialTransport implements Transport for serial connections
type SerialTransport struct {
	config    SerialConfig
	open      PortOpener
	listPorts func() ([]string, error)
	logger    *zap.Logger
	stats     statsRecorder
}

// NewSerialTransport creates a new serial transport
func NewSerialTransport(config SerialConfig, logger *zap.Logger) *SerialTransport {
	return NewSerialTransportWithOpener(config, serial.Open, logger)
}

// NewSerialTransportWithOpener creates a serial transport with a custom port opener
func NewSerialTransportWithOpener(config SerialConfig, open PortOpener, logger *zap.Logger) *SerialTransport {
	defaults := DefaultSerialConfig()
	if config.BaudRate == 0 {
		config.BaudRate = defaults.BaudRate
	}
	if config.DataBits == 0 {
		config.DataBits = defaults.DataBits
	}
	return &SerialTransport{
		config:    config,
		open:      open,
		listPorts: serial.GetPortsList,
		logger:    logger.With(zap.String("protocol", "serial")),
	}
}

// Kind returns the transport kind
func (st *SerialTransport) Kind() model.TransportKind {
	return model.TransportSerial
}

// Available reports whether the host can enumerate serial ports
func (st *SerialTransport) Available() bool {
	if _, err := st.listPorts(); err != nil {
		st.logger.Debug("Serial ports unavailable", zap.Error(err))
		return false
	}
	return true
}

// Open opens the device's port at the configured baud rate, 8N1, no flow control
func (st *SerialTransport) Open(ctx context.Context, device model.PrinterDevice) (Handle, error) {
	if device.Port == "" {
		return nil, model.NewTransportError(model.TransportSerial, device.ID, "open",
			fmt.Errorf("%w: serial port is required", model.ErrValidation), false)
	}

	logger := st.logger.With(zap.String("device_id", device.ID), zap.String("port", device.Port))
	logger.Info("Opening serial port", zap.Int("baud_rate", st.config.BaudRate))

	mode := &serial.Mode{
		BaudRate: st.config.BaudRate,
		DataBits: st.config.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := st.open(device.Port, mode)
	if err != nil {
		logger.Error("Failed to open serial port", zap.Error(err))
		return nil, model.NewTransportError(model.TransportSerial, device.ID, "open",
			fmt.Errorf("failed to open serial port: %w", err), isSerialGone(err))
	}

	st.stats.opened()
	logger.Info("Serial port opened successfully")
	return NewSerialHandle(device.ID, device.Port, port), nil
}

// Write writes the whole buffer and waits until it has been transmitted
func (st *SerialTransport) Write(ctx context.Context, h Handle, data []byte) error {
	handle, ok := h.(*SerialHandle)
	if !ok || handle == nil {
		return fmt.Errorf("%w: handle is not a serial handle", model.ErrUnsupportedTransport)
	}
	if handle.port == nil {
		return model.NewTransportError(model.TransportSerial, handle.deviceID, "write", model.ErrNotConnected, false)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	written := 0
	for written < len(data) {
		n, err := handle.port.Write(data[written:])
		written += n
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			return st.writeFailed(handle, written, len(data), err)
		}
	}

	if err := handle.port.Drain(); err != nil {
		return st.writeFailed(handle, written, len(data), fmt.Errorf("drain: %w", err))
	}

	st.stats.written(written, time.Since(startTime))
	st.logger.Debug("Serial write completed",
		zap.String("device_id", handle.deviceID),
		zap.Int("bytes", written),
	)
	return nil
}

// Close closes the serial port
func (st *SerialTransport) Close(h Handle) error {
	handle, ok := h.(*SerialHandle)
	if !ok || handle == nil {
		return fmt.Errorf("%w: handle is not a serial handle", model.ErrUnsupportedTransport)
	}
	if handle.port == nil {
		return nil
	}

	err := handle.port.Close()
	handle.port = nil
	st.stats.closed()

	if err != nil {
		st.logger.Error("Failed to close serial port", zap.String("device_id", handle.deviceID), zap.Error(err))
		return model.NewTransportError(model.TransportSerial, handle.deviceID, "close", err, isSerialGone(err))
	}

	st.logger.Info("Serial port closed successfully", zap.String("device_id", handle.deviceID))
	return nil
}

// Stats returns a snapshot of the transport statistics
func (st *SerialTransport) Stats() ProtocolStats {
	return st.stats.snapshot()
}

func (st *SerialTransport) writeFailed(handle *SerialHandle, written, total int, err error) error {
	st.stats.failed()
	st.logger.Error("Serial write failed",
		zap.String("device_id", handle.deviceID),
		zap.Int("written", written),
		zap.Int("total", total),
		zap.Error(err),
	)
	return model.NewTransportError(model.TransportSerial, handle.deviceID, "write", err, isSerialGone(err))
}

// isSerialGone classifies port errors that mean the adapter was unplugged
func isSerialGone(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortClosed, serial.PortNotFound:
			return true
		}
	}
	return looksGone(err)
}
