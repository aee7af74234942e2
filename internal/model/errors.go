// internal/model/errors.go
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrNotConnected         = errors.New("printer not connected")
	ErrNoEndpoint           = errors.New("no bulk out endpoint")
	ErrDeviceGone           = errors.New("device went away")
	ErrValidation           = errors.New("validation failed")
	ErrConfigNotFound       = errors.New("printer config not found")
	ErrDeviceNotFound       = errors.New("printer device not found")
)

// TransportError wraps a failure of a transport operation
type TransportError struct {
	Kind     TransportKind
	DeviceID string
	Op       string
	Err      error
	gone     bool
}

// NewTransportError builds a TransportError; gone marks failures meaning the
// device is no longer attached.
func NewTransportError(kind TransportKind, deviceID, op string, err error, gone bool) *TransportError {
	return &TransportError{Kind: kind, DeviceID: deviceID, Op: op, Err: err, gone: gone}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.DeviceID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Gone reports whether the device went away during the operation
func (e *TransportError) Gone() bool {
	return e.gone || errors.Is(e.Err, ErrDeviceGone)
}

// IsDeviceGone reports whether err carries a device-went-away signal
func IsDeviceGone(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Gone()
	}
	return errors.Is(err, ErrDeviceGone)
}

// ValidationError rejects a config or job before it reaches storage or hardware
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ScanError reports the transports whose scan failed. Devices found on the
// other transports are returned alongside it.
type ScanError struct {
	Failures map[TransportKind]error
}

func (e *ScanError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for kind, err := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", kind, err))
	}
	sort.Strings(parts)
	return "scan incomplete: " + strings.Join(parts, "; ")
}

func (e *ScanError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}

// Failed reports whether the scan of kind failed
func (e *ScanError) Failed(kind TransportKind) bool {
	_, failed := e.Failures[kind]
	return failed
}
