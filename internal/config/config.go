package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Export   ExportConfig   `mapstructure:"export"`
	Share    ShareConfig    `mapstructure:"share"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// WorkerConfig holds export worker configuration
type WorkerConfig struct {
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SandboxConfig holds the app sandbox roots used by mobile delivery
type SandboxConfig struct {
	Documents string `mapstructure:"documents"`
	Data      string `mapstructure:"data"`
	Cache     string `mapstructure:"cache"`
	Folder    string `mapstructure:"folder"`
}

// ExportConfig holds export pipeline configuration
type ExportConfig struct {
	Locale           string        `mapstructure:"locale"`
	Currency         string        `mapstructure:"currency"`
	NativeDir        string        `mapstructure:"native_dir"`
	Overwrite        bool          `mapstructure:"overwrite"`
	DownloadDir      string        `mapstructure:"download_dir"`
	MaxDownloadBytes int           `mapstructure:"max_download_bytes"`
	Sandbox          SandboxConfig `mapstructure:"sandbox"`
}

// ShareConfig holds the external share command
type ShareConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Title   string   `mapstructure:"title"`
}

// Load loads configuration from a .env file, the config file and environment variables.
// An empty configPath skips the file and uses defaults plus environment.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TIEXPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 3*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/tietracker.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 28)

	// Worker defaults
	v.SetDefault("worker.queue_size", 16)
	v.SetDefault("worker.timeout", 2*time.Minute)

	// Export defaults
	v.SetDefault("export.locale", "en")
	v.SetDefault("export.currency", "USD")
	v.SetDefault("export.native_dir", "exports")
	v.SetDefault("export.overwrite", false)
	v.SetDefault("export.download_dir", "downloads")
	v.SetDefault("export.max_download_bytes", 32<<20)
	v.SetDefault("export.sandbox.documents", "sandbox/documents")
	v.SetDefault("export.sandbox.data", "sandbox/data")
	v.SetDefault("export.sandbox.cache", "sandbox/cache")
	v.SetDefault("export.sandbox.folder", "tietracker")

	// Share defaults
	v.SetDefault("share.title", "Pick an app")
}

// bindEnvVars binds the short environment names used in deployments
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.path", "TIEXPORT_DB_PATH")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
	_ = v.BindEnv("export.locale", "TIEXPORT_LOCALE")
	_ = v.BindEnv("share.command", "TIEXPORT_SHARE_COMMAND")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.queue_size must be positive")
	}
	if c.Worker.Timeout <= 0 {
		return fmt.Errorf("worker.timeout must be positive")
	}

	if c.Export.Sandbox.Documents == "" {
		return fmt.Errorf("export.sandbox.documents is required")
	}
	if c.Export.Sandbox.Folder == "" {
		return fmt.Errorf("export.sandbox.folder is required")
	}
	if c.Export.MaxDownloadBytes < 0 {
		return fmt.Errorf("export.max_download_bytes must not be negative")
	}

	return nil
}
