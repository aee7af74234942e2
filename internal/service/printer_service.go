// internal/service/printer_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/utils"
)

// DeviceRegistry is the part of the registry the settings screens use
type DeviceRegistry interface {
	Support() model.Capabilities
	Discover(ctx context.Context, kind model.TransportKind) ([]model.PrinterDevice, error)
	Connect(ctx context.Context, kind model.TransportKind, picker registry.Picker) (model.PrinterDevice, error)
	Disconnect(ctx context.Context, deviceID string) error
	Status(ctx context.Context, deviceID string) model.DeviceStatus
	LiveDevices() []model.PrinterDevice
}

// PrinterService backs the printer settings: devices, configs and test prints
type PrinterService struct {
	registry    DeviceRegistry
	configs     repository.ConfigRepository
	history     repository.HistoryRepository
	dispatcher  *PrintDispatcher
	events      EventPublisher
	logger      *utils.ServiceLogger
	auditLogger *utils.AuditLogger
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(
	registry DeviceRegistry,
	configs repository.ConfigRepository,
	history repository.HistoryRepository,
	dispatcher *PrintDispatcher,
	events EventPublisher,
	logger *zap.Logger,
) *PrinterService {
	return &PrinterService{
		registry:    registry,
		configs:     configs,
		history:     history,
		dispatcher:  dispatcher,
		events:      events,
		logger:      utils.NewServiceLogger(logger, "printer-service"),
		auditLogger: utils.NewAuditLogger(logger),
	}
}

// Support reports which transports the host can drive
func (ps *PrinterService) Support() model.Capabilities {
	return ps.registry.Support()
}

// Discover lists printers the host already exposes for a transport
func (ps *PrinterService) Discover(ctx context.Context, transport string) ([]model.PrinterDevice, error) {
	kind, err := model.ParseTransportKind(transport)
	if err != nil {
		return nil, err
	}
	return ps.registry.Discover(ctx, kind)
}

// Connect connects the requested device, or the first printer candidate
func (ps *PrinterService) Connect(ctx context.Context, req ConnectRequest) (model.PrinterDevice, error) {
	kind, err := model.ParseTransportKind(req.Transport)
	if err != nil {
		return model.PrinterDevice{}, err
	}

	picker := registry.FirstCandidate()
	if req.DeviceID != "" {
		picker = registry.ByID(req.DeviceID)
	}

	device, err := ps.registry.Connect(ctx, kind, picker)
	utils.NewDeviceLogger(ps.logger.Logger, req.DeviceID, string(kind)).LogConnection("connect", err)
	return device, err
}

// Disconnect closes a device and forgets it
func (ps *PrinterService) Disconnect(ctx context.Context, deviceID string) error {
	err := ps.registry.Disconnect(ctx, deviceID)
	kind, _ := model.TransportOf(deviceID)
	utils.NewDeviceLogger(ps.logger.Logger, deviceID, string(kind)).LogConnection("disconnect", err)
	return err
}

// Status reports a device state, attempting a reconnect if it is not live
func (ps *PrinterService) Status(ctx context.Context, deviceID string) model.DeviceStatus {
	return ps.registry.Status(ctx, deviceID)
}

// LiveDevices returns the devices with an open handle
func (ps *PrinterService) LiveDevices() []model.PrinterDevice {
	return ps.registry.LiveDevices()
}

// SaveConfig validates and stores a config. An empty device name is filled
// from the live device so the config stays readable while it is offline.
func (ps *PrinterService) SaveConfig(ctx context.Context, cfg model.PrinterConfig) (model.PrinterConfig, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return model.PrinterConfig{}, err
	}

	if cfg.DeviceName == "" {
		cfg.DeviceName = ps.deviceName(cfg.DeviceID)
	}

	var previous *model.PrinterConfig
	if cfg.ID != "" {
		if old, err := ps.configs.Get(ctx, cfg.ID); err == nil {
			previous = &old
		}
	}

	saved, err := ps.configs.Save(ctx, cfg)
	if err != nil {
		return model.PrinterConfig{}, err
	}

	action := "create"
	if previous != nil {
		action = "update"
	}
	ps.auditLogger.LogConfigChange(action, saved.ID, previous, saved)
	ps.publishConfigUpdate(saved.DeviceID, action)
	return saved, nil
}

// ListConfigs returns every stored config with its device state
func (ps *PrinterService) ListConfigs(ctx context.Context) ([]ConfigView, error) {
	configs, err := ps.configs.List(ctx)
	if err != nil {
		return nil, err
	}

	live := make(map[string]bool)
	for _, d := range ps.registry.LiveDevices() {
		live[d.ID] = true
	}

	views := make([]ConfigView, 0, len(configs))
	for _, cfg := range configs {
		status := model.DeviceStatusDisconnected
		if live[cfg.DeviceID] {
			status = model.DeviceStatusConnected
		}
		views = append(views, ConfigView{PrinterConfig: cfg, DeviceStatus: status})
	}
	return views, nil
}

// GetConfig returns one config
func (ps *PrinterService) GetConfig(ctx context.Context, id string) (model.PrinterConfig, error) {
	return ps.configs.Get(ctx, id)
}

// DeleteConfig removes a config
func (ps *PrinterService) DeleteConfig(ctx context.Context, id string) error {
	old, err := ps.configs.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ps.configs.Remove(ctx, id); err != nil {
		return err
	}

	ps.auditLogger.LogConfigChange("delete", id, old, nil)
	ps.publishConfigUpdate(old.DeviceID, "delete")
	return nil
}

// TestConfig prints a sample through a stored config
func (ps *PrinterService) TestConfig(ctx context.Context, id string) error {
	cfg, err := ps.configs.Get(ctx, id)
	if err != nil {
		return err
	}
	return ps.dispatcher.TestPrinter(ctx, cfg)
}

// History lists recent print records
func (ps *PrinterService) History(ctx context.Context, filter *model.HistoryFilter) ([]*model.PrintRecord, error) {
	return ps.history.List(ctx, filter)
}

// HistoryStats summarises the print history
func (ps *PrinterService) HistoryStats(ctx context.Context) (*model.HistoryStats, error) {
	return ps.history.Stats(ctx)
}

func (ps *PrinterService) deviceName(deviceID string) string {
	for _, d := range ps.registry.LiveDevices() {
		if d.ID == deviceID {
			return d.DisplayName
		}
	}
	return ""
}

func (ps *PrinterService) publishConfigUpdate(deviceID, action string) {
	if ps.events == nil {
		return
	}
	kind, _ := model.TransportOf(deviceID)
	event := model.NewDeviceEvent(model.EventConfigUpdate, deviceID, kind)
	event.Reason = action
	ps.events.Publish(event)
}
