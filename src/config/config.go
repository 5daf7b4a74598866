package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"holiday-pipeline/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the YAML file
const (
	EnvProvider        = "HOLIDAY_PROVIDER"
	EnvAPIKey          = "HOLIDAY_API_KEY"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvBatchSize       = "MIGRATION_BATCH_SIZE"
	EnvDryRun          = "MIGRATION_DRY_RUN"
	EnvSkipExisting    = "MIGRATION_SKIP_EXISTING"
	EnvRollbackOnError = "MIGRATION_ROLLBACK_ON_ERROR"
	EnvVerbose         = "MIGRATION_VERBOSE"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file, then .env files, then environment overrides,
// applies defaults and validates.
func NewConfig(configPath string, envFiles ...string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	config.ApplyDefaults()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file '%s': %w", f, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides fields from the environment. getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvProvider)); v != "" {
		c.Provider.Name = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.Provider.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvDatabaseURL)); v != "" {
		c.Migration.DBConnectionString = v
		if c.Migration.DBType == "" {
			c.Migration.DBType = "postgres"
		}
	}
	if v := strings.TrimSpace(getenv(EnvBatchSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvBatchSize, v, err)
		}
		c.Migration.BatchSize = n
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{EnvDryRun, &c.Migration.DryRun},
		{EnvSkipExisting, &c.Migration.SkipExisting},
		{EnvRollbackOnError, &c.Migration.RollbackOnError},
		{EnvVerbose, &c.Migration.Verbose},
	}
	for _, f := range flags {
		v := strings.TrimSpace(getenv(f.name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, v, err)
		}
		*f.dst = b
	}
	return nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "holiday-pipeline"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = models.ProviderNager
	}

	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 10
	}
	if c.Network.MaxAttempts == 0 {
		c.Network.MaxAttempts = 3
	}
	if c.Network.RetryBaseDelayMs == 0 {
		c.Network.RetryBaseDelayMs = 1000
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data/holidays"
	}
	if c.Storage.RawCacheDir == "" {
		c.Storage.RawCacheDir = "data/cache/raw"
	}
	if c.Storage.CollectorCacheDir == "" {
		c.Storage.CollectorCacheDir = "data/cache/collector"
	}

	if c.Collection.RequestDelayMs == 0 {
		c.Collection.RequestDelayMs = 500
	}
	if c.Collection.YearDelayMs == 0 {
		c.Collection.YearDelayMs = 5000
	}
	if c.Collection.RawCacheTTLHours == 0 {
		c.Collection.RawCacheTTLHours = 30 * 24
	}
	if c.Collection.DualCacheTTLHours == 0 {
		c.Collection.DualCacheTTLHours = 24
	}

	if c.Migration.BatchSize == 0 {
		c.Migration.BatchSize = 50
	}
	if c.Migration.BatchDelayMs == 0 {
		c.Migration.BatchDelayMs = 100
	}
	if c.Migration.DBType == "" {
		c.Migration.DBType = "sqlite"
	}
	if c.Migration.DBType == "sqlite" && c.Migration.DBPath == "" {
		c.Migration.DBPath = "data/holiday_descriptions.db"
	}
	if c.Migration.SourcePath == "" {
		c.Migration.SourcePath = "data/cache/holiday-descriptions.json"
	}
	if c.Migration.BackupDir == "" {
		c.Migration.BackupDir = "data/backups"
	}
	if c.Migration.LogPath == "" {
		c.Migration.LogPath = "logs/migration.log"
	}
	if c.Migration.AIModel == "" {
		c.Migration.AIModel = "unknown"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Provider
	switch c.Provider.Name {
	case models.ProviderCalendarific:
		if strings.TrimSpace(c.Provider.APIKey) == "" {
			return fmt.Errorf("provider %s requires an api key (set %s)", c.Provider.Name, EnvAPIKey)
		}
	case models.ProviderNager:
	default:
		return fmt.Errorf("unknown provider %q (must be %s or %s)", c.Provider.Name, models.ProviderCalendarific, models.ProviderNager)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be greater than 0")
	}
	if c.Network.RetryBaseDelayMs < 0 {
		return fmt.Errorf("retry base delay cannot be negative")
	}
	if c.Network.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}

	// Storage
	switch c.Storage.Backend {
	case "file", "memory":
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("minio backend requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	// Collection
	for i, cc := range c.Collection.Countries {
		if len(strings.TrimSpace(cc)) != 2 {
			return fmt.Errorf("country %d (%q) must be an ISO-3166 alpha-2 code", i, cc)
		}
	}
	for _, y := range c.Collection.Years {
		if y < 1900 || y > 2200 {
			return fmt.Errorf("invalid collection year %d", y)
		}
	}

	// Migration
	if c.Migration.BatchSize <= 0 {
		return fmt.Errorf("migration batch size must be greater than 0")
	}
	switch c.Migration.DBType {
	case "sqlite":
		if c.Migration.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Migration.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres (set %s)", EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("unknown database type %q", c.Migration.DBType)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
