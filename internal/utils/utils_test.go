package utils

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"printer-service/internal/config"
	"printer-service/internal/model"
)

func TestStatusFromError(t *testing.T) {
	transportErr := model.NewTransportError(model.TransportUSB, "usb:04B8:0202", "write", errors.New("timeout"), false)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &model.ValidationError{Field: "copies", Message: "must be at least 1"}, http.StatusBadRequest},
		{"config not found", fmt.Errorf("%w: abc", model.ErrConfigNotFound), http.StatusNotFound},
		{"device not found", model.ErrDeviceNotFound, http.StatusNotFound},
		{"not connected", fmt.Errorf("%w: usb:04B8:0202: %w", model.ErrNotConnected, errors.New("busy")), http.StatusConflict},
		{"unsupported", model.ErrUnsupportedTransport, http.StatusNotImplemented},
		{"transport", fmt.Errorf("copy 2: %w", transportErr), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromError(tt.err); got != tt.want {
				t.Errorf("StatusFromError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:  "debug",
		Format: "console",
		Output: filepath.Join(t.TempDir(), "logs", "printer-service.log"),
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hello")
	_ = CloseLogger(logger)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger(&config.LoggingConfig{Level: "verbose", Output: "stdout"}); err == nil {
		t.Fatal("Expected error for unknown level")
	}
}
