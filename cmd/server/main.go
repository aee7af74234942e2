// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "printer-service/docs"
	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/discovery"
	serialscan "printer-service/internal/discovery/serial"
	usbscan "printer-service/internal/discovery/usb"
	"printer-service/internal/escpos"
	"printer-service/internal/handler"
	"printer-service/internal/model"
	"printer-service/internal/protocol"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/routes"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	migrator *database.Migrator

	// Repositories
	configRepo  repository.ConfigRepository
	historyRepo repository.HistoryRepository

	// Devices
	scanners *discovery.ScannerManager
	registry *registry.Registry
	monitor  *registry.Monitor
	eventBus *handler.EventBus

	// Services
	dispatcher     *service.PrintDispatcher
	printerService *service.PrinterService
	wsHandler      *handler.WebSocketHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// @title Printer Service API
// @version 1.0.0
// @description Thermal receipt printer integration for point-of-sale: USB and serial transports, ESC/POS rendering, role based printer configuration and print dispatch

// @contact.name Printer Service API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8084
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version,
		zap.String("environment", cfg.App.Environment),
		zap.String("config_path", cfg.Printer.ConfigPath),
		zap.Bool("database_enabled", cfg.Database.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeRepositories()

	if err := app.initializeDevices(); err != nil {
		return nil, fmt.Errorf("failed to initialize devices: %w", err)
	}

	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeDatabase connects the print history database when enabled
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, print history kept in memory",
			zap.Int("history_limit", app.config.Printer.HistoryLimit),
		)
		return nil
	}

	db, err := database.NewConnection(app.config.GetDatabaseDSN(), &app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db
	app.migrator = database.NewMigrator(db, app.logger)

	if app.config.Database.AutoMigrate {
		if err := app.migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() {
	app.configRepo = repository.NewConfigRepository(app.config.Printer.ConfigPath, app.logger)

	if app.database != nil {
		app.historyRepo = repository.NewHistoryRepository(app.database, app.logger)
	} else {
		app.historyRepo = repository.NewMemoryHistoryRepository(app.config.Printer.HistoryLimit)
	}

	app.logger.Info("Repositories initialized successfully")
}

// initializeDevices sets up transports, discovery and the device registry
func (app *Application) initializeDevices() error {
	transports, err := protocol.CreateTransports(app.config.Device.DefaultPort, app.logger)
	if err != nil {
		return err
	}

	vendors := discovery.NewVendorDatabase()
	app.scanners = discovery.NewScannerManager(vendors, app.logger)
	app.scanners.RegisterScanner(usbscan.NewScanner(vendors, app.logger, &usbscan.Config{
		ScanTimeout: 10 * time.Second,
		EnableDebug: app.config.IsDebugEnabled(),
	}))
	app.scanners.RegisterScanner(serialscan.NewScanner(vendors, app.logger))

	app.eventBus = handler.NewEventBus(app.logger)

	app.registry = registry.New(transports, app.scanners, app.logger,
		registry.WithEvents(app.eventBus),
		registry.WithReconnectDelay(app.config.Device.ReconnectDelay),
	)
	app.monitor = registry.NewMonitor(app.scanners, app.registry, app.config.Device.MonitorInterval, app.logger)

	caps := app.registry.Support()
	app.logger.Info("Device registry initialized",
		zap.Bool("usb_available", caps.USBAvailable),
		zap.Bool("serial_available", caps.SerialAvailable),
		zap.Int("known_vendors", vendors.VendorCount()),
	)
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() {
	encoder := escpos.NewEncoder(app.config.Printer.DateLayout, app.config.Location(), app.config.Printer.Currency)

	app.dispatcher = service.NewPrintDispatcher(
		app.configRepo,
		app.historyRepo,
		app.registry,
		encoder,
		app.logger,
		service.WithCopyPause(app.config.Printer.CopyPause),
		service.WithTransliteration(app.config.Printer.Transliterate),
		service.WithDispatcherEvents(app.eventBus),
	)

	app.printerService = service.NewPrinterService(
		app.registry,
		app.configRepo,
		app.historyRepo,
		app.dispatcher,
		app.eventBus,
		app.logger,
	)

	app.wsHandler = handler.NewWebSocketHandler(app.printerService, app.eventBus, app.config.Security.AllowedOrigins, app.logger)

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	// a nil *database.DB must not reach the handler as a non-nil interface
	var db handler.DatabaseChecker
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		db,
		app.printerService,
		app.dispatcher,
		app.wsHandler,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	go app.eventBus.Start()
	go app.wsHandler.Run(app.ctx)

	app.monitor.Start(app.ctx)

	go app.restoreConfiguredPrinters()

	if app.migrator != nil && app.config.Database.HistoryMaxAge > 0 {
		go app.startCleanupService()
	}

	app.logger.Info("Background services started")
}

// restoreConfiguredPrinters reopens the printers saved configs point at, so
// the first hook after a restart does not pay for the open
func (app *Application) restoreConfiguredPrinters() {
	ctx, cancel := context.WithTimeout(app.ctx, 30*time.Second)
	defer cancel()

	configs, err := app.configRepo.List(ctx)
	if err != nil {
		app.logger.Error("Failed to list printer configs", zap.Error(err))
		return
	}

	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled || cfg.DeviceID == "" || seen[cfg.DeviceID] {
			continue
		}
		seen[cfg.DeviceID] = true

		status := app.registry.Status(ctx, cfg.DeviceID)
		app.logger.Info("Configured printer restored",
			zap.String("config_id", cfg.ID),
			zap.String("role", string(cfg.Role)),
			zap.String("device_id", cfg.DeviceID),
			zap.String("status", string(status)),
		)
		if status != model.DeviceStatusConnected {
			app.logger.Warn("Configured printer unavailable", zap.String("device_id", cfg.DeviceID))
		}
	}
}

// startCleanupService deletes print history older than the retention window
func (app *Application) startCleanupService() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	app.logger.Info("Cleanup service started", zap.Duration("max_age", app.config.Database.HistoryMaxAge))

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			if err := app.migrator.RunCleanup(app.config.Database.HistoryMaxAge); err != nil {
				app.logger.Error("Failed to cleanup print history", zap.Error(err))
			}
		}
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.cancel()
	app.monitor.Stop()

	if err := app.registry.Close(); err != nil {
		app.logger.Error("Failed to close printer handles", zap.Error(err))
	}

	app.eventBus.Stop()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()

	app.waitForShutdown()

	return nil
}
