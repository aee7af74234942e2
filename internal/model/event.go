// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventDeviceConnected    EventType = "DEVICE_CONNECTED"
	EventDeviceDisconnected EventType = "DEVICE_DISCONNECTED"
	EventWriteFailed        EventType = "WRITE_FAILED"
	EventReconnectFailed    EventType = "RECONNECT_FAILED"
	EventReconnectAbandoned EventType = "RECONNECT_ABANDONED"
	EventConfigUpdate       EventType = "CONFIG_UPDATE"
	EventPrintCompleted     EventType = "PRINT_COMPLETED"
	EventPrintFailed        EventType = "PRINT_FAILED"
)

// DeviceEvent represents a printer lifecycle event
type DeviceEvent struct {
	ID            uuid.UUID     `json:"id"`
	EventType     EventType     `json:"event_type"`
	DeviceID      string        `json:"device_id"`
	TransportKind TransportKind `json:"transport_kind,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Attempt       int           `json:"attempt,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Severity      string        `json:"severity"` // INFO, WARNING, ERROR
}

// NewDeviceEvent creates an event stamped with a fresh id and the current time
func NewDeviceEvent(eventType EventType, deviceID string, kind TransportKind) DeviceEvent {
	severity := "INFO"
	switch eventType {
	case EventWriteFailed, EventReconnectFailed, EventPrintFailed:
		severity = "WARNING"
	case EventReconnectAbandoned:
		severity = "ERROR"
	}

	return DeviceEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		DeviceID:      deviceID,
		TransportKind: kind,
		Timestamp:     time.Now(),
		Severity:      severity,
	}
}

// HostEventType is an attach/detach notification from the host
type HostEventType string

const (
	HostDeviceAttached HostEventType = "attached"
	HostDeviceDetached HostEventType = "detached"
)

// HostEvent carries a hot-plug notification for a device
type HostEvent struct {
	Type   HostEventType
	Device PrinterDevice
}
