// internal/protocol/factory.go
package protocol

import (
	"fmt"

	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/model"
)

var validBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// CreateTransport creates a transport based on its kind and the default port settings
func CreateTransport(kind model.TransportKind, ports config.DevicePortConfig, logger *zap.Logger) (Transport, error) {
	switch kind {
	case model.TransportUSB:
		logger.Info("Creating USB transport",
			zap.Duration("write_timeout", ports.USB.WriteTimeout),
			zap.Int("default_packet_size", ports.USB.DefaultPacketSize),
		)
		return NewUSBTransport(ports.USB.WriteTimeout, ports.USB.DefaultPacketSize, logger), nil

	case model.TransportSerial:
		serialConfig := SerialConfig{
			BaudRate: ports.Serial.BaudRate,
			DataBits: ports.Serial.DataBits,
		}
		if err := ValidateSerialConfig(serialConfig); err != nil {
			return nil, err
		}
		logger.Info("Creating serial transport", zap.Int("baud_rate", serialConfig.BaudRate))
		return NewSerialTransport(serialConfig, logger), nil

	default:
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedTransport, kind)
	}
}

// CreateTransports creates every supported transport
func CreateTransports(ports config.DevicePortConfig, logger *zap.Logger) ([]Transport, error) {
	kinds := []model.TransportKind{model.TransportUSB, model.TransportSerial}
	transports := make([]Transport, 0, len(kinds))
	for _, kind := range kinds {
		t, err := CreateTransport(kind, ports, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s transport: %w", kind, err)
		}
		transports = append(transports, t)
	}
	return transports, nil
}

// ValidateSerialConfig validates serial line settings; zero values mean defaults
func ValidateSerialConfig(cfg SerialConfig) error {
	if cfg.BaudRate != 0 {
		valid := false
		for _, rate := range validBaudRates {
			if cfg.BaudRate == rate {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid baud rate: %d", cfg.BaudRate)
		}
	}

	if cfg.DataBits != 0 && (cfg.DataBits < 5 || cfg.DataBits > 8) {
		return fmt.Errorf("invalid data bits: %d", cfg.DataBits)
	}

	return nil
}
