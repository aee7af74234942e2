// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Device   DeviceConfig   `mapstructure:"device"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents the optional print history database.
// When disabled the history is kept in memory.
type DatabaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	DBName        string        `mapstructure:"dbname"`
	SSLMode       string        `mapstructure:"sslmode"`
	MaxOpenConns  int           `mapstructure:"max_open_conns"`
	MaxIdleConns  int           `mapstructure:"max_idle_conns"`
	MaxLifetime   time.Duration `mapstructure:"max_lifetime"`
	AutoMigrate   bool          `mapstructure:"auto_migrate"`
	HistoryMaxAge time.Duration `mapstructure:"history_max_age"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig holds print dispatch and receipt layout settings
type PrinterConfig struct {
	ConfigPath    string        `mapstructure:"config_path"`
	CopyPause     time.Duration `mapstructure:"copy_pause"`
	Transliterate bool          `mapstructure:"transliterate"`
	DateLayout    string        `mapstructure:"date_layout"`
	Timezone      string        `mapstructure:"timezone"`
	Currency      string        `mapstructure:"currency"`
	HistoryLimit  int           `mapstructure:"history_limit"`
}

// DeviceConfig represents device-specific configuration
type DeviceConfig struct {
	MonitorInterval time.Duration    `mapstructure:"monitor_interval"`
	ReconnectDelay  time.Duration    `mapstructure:"reconnect_delay"`
	DefaultPort     DevicePortConfig `mapstructure:"default_ports"`
}

// DevicePortConfig represents default port configurations
type DevicePortConfig struct {
	Serial SerialPortConfig `mapstructure:"serial"`
	USB    USBPortConfig    `mapstructure:"usb"`
}

// SerialPortConfig represents serial port configuration
type SerialPortConfig struct {
	BaudRate int `mapstructure:"baud_rate"`
	DataBits int `mapstructure:"data_bits"`
}

// USBPortConfig represents USB port configuration
type USBPortConfig struct {
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	DefaultPacketSize int           `mapstructure:"default_packet_size"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from config.yaml (if present) and environment variables
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file; an empty path searches
// the working directory and ./config.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable support
	v.SetEnvPrefix("PRINTER_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "printer_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.history_max_age", "720h")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Printer defaults
	v.SetDefault("printer.config_path", "./data/printer_configs.json")
	v.SetDefault("printer.copy_pause", "500ms")
	v.SetDefault("printer.transliterate", false)
	v.SetDefault("printer.date_layout", "02/01/2006 15:04")
	v.SetDefault("printer.timezone", "Local")
	v.SetDefault("printer.currency", "R$")
	v.SetDefault("printer.history_limit", 500)

	// Device defaults
	v.SetDefault("device.monitor_interval", "5s")
	v.SetDefault("device.reconnect_delay", "1s")
	v.SetDefault("device.default_ports.serial.baud_rate", 9600)
	v.SetDefault("device.default_ports.serial.data_bits", 8)
	v.SetDefault("device.default_ports.usb.write_timeout", "5s")
	v.SetDefault("device.default_ports.usb.default_packet_size", 64)

	// App defaults
	v.SetDefault("app.name", "printer-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Printer.ConfigPath == "" {
		return fmt.Errorf("printer.config_path is required")
	}
	if config.Printer.CopyPause < 0 {
		return fmt.Errorf("printer.copy_pause must not be negative")
	}
	if config.Device.DefaultPort.USB.DefaultPacketSize <= 0 {
		return fmt.Errorf("device.default_ports.usb.default_packet_size must be positive")
	}
	if _, err := time.LoadLocation(config.Printer.Timezone); err != nil {
		return fmt.Errorf("printer.timezone is invalid: %w", err)
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when database is enabled")
	}

	validEnvs := []string{"development", "staging", "production", "test"}
	if !contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// Location returns the timezone receipts are stamped in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Printer.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
