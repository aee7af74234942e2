// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"printer-service/internal/config"
)

// LoggerManager builds the application logger from configuration
type LoggerManager struct {
	config *config.LoggingConfig
}

// NewLogger creates a new logger instance based on configuration
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	manager := &LoggerManager{config: cfg}

	logger, err := manager.createLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func (lm *LoggerManager) createLogger() (*zap.Logger, error) {
	encoderConfig := lm.getEncoderConfig()

	var encoder zapcore.Encoder
	if lm.config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer, err := lm.getWriteSyncer()
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	level, err := lm.getLogLevel()
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func (lm *LoggerManager) getEncoderConfig() zapcore.EncoderConfig {
	config := zap.NewProductionEncoderConfig()
	config.TimeKey = "timestamp"
	config.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	config.LevelKey = "level"
	config.EncodeLevel = zapcore.LowercaseLevelEncoder
	config.CallerKey = "caller"
	config.EncodeCaller = zapcore.ShortCallerEncoder
	config.MessageKey = "message"
	config.StacktraceKey = "stacktrace"

	if lm.config.Format == "console" {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}

	return config
}

// getWriteSyncer returns stdout, stderr or a rotated log file
func (lm *LoggerManager) getWriteSyncer() (zapcore.WriteSyncer, error) {
	switch lm.config.Output {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	output := lm.config.Output
	if output == "" {
		output = "./logs/printer-service.log"
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   output,
		MaxSize:    lm.config.MaxSize, // MB
		MaxBackups: lm.config.MaxBackups,
		MaxAge:     lm.config.MaxAge, // days
		Compress:   lm.config.Compress,
	}), nil
}

func (lm *LoggerManager) getLogLevel() (zapcore.Level, error) {
	switch lm.config.Level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", lm.config.Level)
	}
}

// DeviceLogger scopes log lines to one printer
type DeviceLogger struct {
	*zap.Logger
	deviceID string
}

// NewDeviceLogger creates a device-specific logger
func NewDeviceLogger(baseLogger *zap.Logger, deviceID, transport string) *DeviceLogger {
	return &DeviceLogger{
		Logger: baseLogger.With(
			zap.String("device_id", deviceID),
			zap.String("transport", transport),
			zap.String("component", "device"),
		),
		deviceID: deviceID,
	}
}

// LogConnection logs connect and disconnect requests
func (dl *DeviceLogger) LogConnection(action string, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.Bool("success", err == nil),
	}

	if err != nil {
		dl.Warn("Device connection event", append(fields, zap.Error(err))...)
		return
	}
	dl.Info("Device connection event", fields...)
}

// LogCopy logs a single transmitted copy
func (dl *DeviceLogger) LogCopy(copyNumber, copies, bytes int, duration time.Duration) {
	dl.Debug("Copy sent",
		zap.Int("copy", copyNumber),
		zap.Int("copies", copies),
		zap.Int("bytes", bytes),
		zap.Duration("duration", duration),
	)
}

// JobLogger follows one print job from start to outcome
type JobLogger struct {
	logger    *zap.Logger
	startTime time.Time
}

// NewJobLogger creates a job-specific logger
func NewJobLogger(baseLogger *zap.Logger, role, jobID string) *JobLogger {
	return &JobLogger{
		logger: baseLogger.With(
			zap.String("role", role),
			zap.String("job_id", jobID),
			zap.String("component", "print_job"),
		),
		startTime: time.Now(),
	}
}

// Logger returns the scoped logger
func (jl *JobLogger) Logger() *zap.Logger {
	return jl.logger
}

// Start logs job start
func (jl *JobLogger) Start(fields ...zap.Field) {
	jl.logger.Info("Print job started", fields...)
}

// Success logs a job whose every copy was written
func (jl *JobLogger) Success(fields ...zap.Field) {
	jl.logger.Info("Print job completed",
		append([]zap.Field{zap.Duration("duration", time.Since(jl.startTime))}, fields...)...)
}

// Skipped logs a job that was intentionally not printed
func (jl *JobLogger) Skipped(reason string) {
	jl.logger.Debug("Print job skipped", zap.String("reason", reason))
}

// Error logs job failure
func (jl *JobLogger) Error(err error, fields ...zap.Field) {
	jl.logger.Warn("Print job failed",
		append([]zap.Field{
			zap.Duration("duration", time.Since(jl.startTime)),
			zap.Error(err),
		}, fields...)...)
}

// ServiceLogger provides service-level logging functionality
type ServiceLogger struct {
	*zap.Logger
	serviceName string
}

// NewServiceLogger creates a service-specific logger
func NewServiceLogger(baseLogger *zap.Logger, serviceName string) *ServiceLogger {
	return &ServiceLogger{
		Logger: baseLogger.With(
			zap.String("service", serviceName),
			zap.String("component", "service"),
		),
		serviceName: serviceName,
	}
}

// LogServiceStart logs service startup
func (sl *ServiceLogger) LogServiceStart(version string, fields ...zap.Field) {
	sl.Info("Service starting", append([]zap.Field{zap.String("version", version)}, fields...)...)
}

// LogServiceStop logs service shutdown
func (sl *ServiceLogger) LogServiceStop(reason string) {
	sl.Info("Service stopping", zap.String("reason", reason))
}

// LogAPIRequest logs HTTP API requests at a level matching the status
func (sl *ServiceLogger) LogAPIRequest(method, path, clientIP, requestID string, statusCode int, duration time.Duration) {
	level := zapcore.InfoLevel
	if statusCode >= 400 {
		level = zapcore.WarnLevel
	}
	if statusCode >= 500 {
		level = zapcore.ErrorLevel
	}

	if ce := sl.Check(level, "API request"); ce != nil {
		ce.Write(
			zap.String("method", method),
			zap.String("path", path),
			zap.String("client_ip", clientIP),
			zap.String("request_id", requestID),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		)
	}
}

// AuditLogger records operator changes to printer configuration
type AuditLogger struct {
	logger *zap.Logger
}

// NewAuditLogger creates an audit-specific logger
func NewAuditLogger(baseLogger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: baseLogger.With(zap.String("component", "audit"))}
}

// LogConfigChange logs a created, updated or deleted printer config
func (al *AuditLogger) LogConfigChange(action, configID string, oldConfig, newConfig interface{}) {
	al.logger.Info("Printer configuration changed",
		zap.String("action", action),
		zap.String("config_id", configID),
		zap.Any("old_config", oldConfig),
		zap.Any("new_config", newConfig),
	)
}

// LoggerWithRequestID adds request ID to logger
func LoggerWithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}

// CloseLogger flushes buffered log entries
func CloseLogger(logger *zap.Logger) error {
	return logger.Sync()
}
