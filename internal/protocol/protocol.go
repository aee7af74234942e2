// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"printer-service/internal/model"
)

// Transport represents a hardware channel able to reach a printer
type Transport interface {
	// Transport information
	Kind() model.TransportKind
	Available() bool

	// Handle lifecycle
	Open(ctx context.Context, device model.PrinterDevice) (Handle, error)
	Close(h Handle) error

	// Data communication. Blocks until every byte is handed to the device.
	Write(ctx context.Context, h Handle, data []byte) error
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	OpenHandles    int           `json:"open_handles"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
}

// StatsProvider is implemented by transports that keep ProtocolStats
type StatsProvider interface {
	Stats() ProtocolStats
}

type statsRecorder struct {
	mu    sync.Mutex
	stats ProtocolStats
}

func (s *statsRecorder) opened() {
	s.mu.Lock()
	s.stats.OpenHandles++
	s.stats.LastActivity = time.Now()
	s.mu.Unlock()
}

func (s *statsRecorder) closed() {
	s.mu.Lock()
	if s.stats.OpenHandles > 0 {
		s.stats.OpenHandles--
	}
	s.mu.Unlock()
}

func (s *statsRecorder) written(n int, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.BytesWritten += int64(n)
	s.stats.OperationCount++
	s.stats.LastActivity = time.Now()

	// running average
	if s.stats.AverageLatency == 0 {
		s.stats.AverageLatency = latency
	} else {
		s.stats.AverageLatency = (s.stats.AverageLatency + latency) / 2
	}
}

func (s *statsRecorder) failed() {
	s.mu.Lock()
	s.stats.ErrorCount++
	s.mu.Unlock()
}

func (s *statsRecorder) snapshot() ProtocolStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

var goneMessages = []string{
	"no such device",
	"device not configured",
	"disconnected",
	"broken pipe",
	"input/output error",
}

// looksGone matches OS level error texts that mean the device was unplugged
func looksGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, model.ErrDeviceGone) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range goneMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
