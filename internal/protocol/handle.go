// internal/protocol/handle.go
package protocol

import (
	"github.com/google/gousb"
	"go.bug.st/serial"

	"printer-service/internal/model"
)

// Handle is an open connection to one printer. The set of implementations
// is closed: *USBHandle and *SerialHandle.
type Handle interface {
	DeviceID() string
	Kind() model.TransportKind
	isHandle()
}

// USBHandle holds the claimed interface and bulk OUT endpoint of a USB printer
type USBHandle struct {
	deviceID   string
	usbCtx     *gousb.Context
	device     *gousb.Device
	config     *gousb.Config
	intf       *gousb.Interface
	out        *gousb.OutEndpoint
	packetSize int
}

func (h *USBHandle) DeviceID() string          { return h.deviceID }
func (h *USBHandle) Kind() model.TransportKind { return model.TransportUSB }
func (h *USBHandle) isHandle()                 {}

// PacketSize returns the chunk size used for bulk writes
func (h *USBHandle) PacketSize() int { return h.packetSize }

// SerialHandle holds an open serial port
type SerialHandle struct {
	deviceID string
	portName string
	port     serial.Port
}

// NewSerialHandle wraps an already opened port
func NewSerialHandle(deviceID, portName string, port serial.Port) *SerialHandle {
	return &SerialHandle{deviceID: deviceID, portName: portName, port: port}
}

func (h *SerialHandle) DeviceID() string          { return h.deviceID }
func (h *SerialHandle) Kind() model.TransportKind { return model.TransportSerial }
func (h *SerialHandle) isHandle()                 {}

// PortName returns the OS name of the port
func (h *SerialHandle) PortName() string { return h.portName }
