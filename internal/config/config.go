package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Signing   SigningConfig   `yaml:"signing"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Template  TemplateConfig  `yaml:"template"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains the ops HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// StorageConfig contains blob storage settings
type StorageConfig struct {
	Type    string `yaml:"type"`     // "local" (S3-compatible backends plug into the same interface)
	RootDir string `yaml:"root_dir"` // For local storage
	BaseURL string `yaml:"base_url"` // Server base URL for signed URLs
	Bucket  string `yaml:"bucket"`
}

// SigningConfig keys the signature HMAC
type SigningConfig struct {
	Secret string `yaml:"secret"`
}

// ArchiveConfig contains document retention settings
type ArchiveConfig struct {
	DefaultRetentionYears int `yaml:"default_retention_years"`
}

// TemplateConfig contains rendering settings
type TemplateConfig struct {
	Locale string `yaml:"locale"` // BCP 47 tag used for numeric grouping, e.g. "hu" or "en"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	CleanupExpiredArchives string `yaml:"cleanup_expired_archives"`
	ArchiveIntegrityAudit  string `yaml:"archive_integrity_audit"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Signing
	if val := os.Getenv("SIGNING_SECRET"); val != "" {
		c.Signing.Secret = val
	}

	// Storage
	if val := os.Getenv("STORAGE_ROOT_DIR"); val != "" {
		c.Storage.RootDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Signing.Secret == "" {
		return fmt.Errorf("signing secret is required")
	}
	if len(c.Signing.Secret) < 32 {
		return fmt.Errorf("signing secret must be at least 32 characters")
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.Type == "local" && c.Storage.RootDir == "" {
		return fmt.Errorf("storage root directory is required for local storage")
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "contracts"
	}

	if c.Archive.DefaultRetentionYears == 0 {
		c.Archive.DefaultRetentionYears = 10
	}

	if c.Template.Locale == "" {
		c.Template.Locale = "hu"
	}

	// Scheduler defaults
	if c.Scheduler.CleanupExpiredArchives == "" {
		c.Scheduler.CleanupExpiredArchives = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.ArchiveIntegrityAudit == "" {
		c.Scheduler.ArchiveIntegrityAudit = "0 0 4 * * 0" // Sundays 4 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the ops HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
