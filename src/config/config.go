package config

import (
	"fmt"
	"os"

	"netsim-results/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() *Config {
	return &Config{MConfig: &models.MConfig{
		Name:     "netsim-results",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "info",
		GrpcHost: "127.0.0.1",
		GrpcPort: 50051,
		Storage: models.MStorageConfig{
			DBType: models.DBTypeNone,
		},
		Aggregation: models.MAggregationConfig{
			MissingThroughput: models.MissingExclude,
			HistorySize:       50,
			MaxUploadBytes:    64 << 20,
		},
	}}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file. Keys absent from the file
// keep their default values.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data over the defaults
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config.MConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server configuration
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be 0 or between 1025 and 65535)", c.GrpcPort)
	}

	// Storage configuration
	switch c.Storage.DBType {
	case "", models.DBTypeNone:
	case models.DBTypeSQLite:
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case models.DBTypePostgres:
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}

	// Aggregation configuration
	switch c.Aggregation.MissingThroughput {
	case models.MissingExclude, models.MissingZero:
	default:
		return fmt.Errorf("missing_throughput must be %q or %q, got %q",
			models.MissingExclude, models.MissingZero, c.Aggregation.MissingThroughput)
	}
	if c.Aggregation.HistorySize <= 0 {
		return fmt.Errorf("history size must be greater than 0")
	}
	if c.Aggregation.MaxUploadBytes < 0 {
		return fmt.Errorf("max upload bytes cannot be negative")
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
