package config

import (
	"fmt"
	"os"

	"lounge-monitor/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from a YAML file, applies
// environment overrides for secrets, and validates the result.
func NewConfig(configPath string) (*Config, error) {
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
	config.applyDefaults()
	config.applyEnvOverrides()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Catalog.RequestTimeout <= 0 {
		c.Catalog.RequestTimeout = 15
	}
	if c.Catalog.DetailsCacheSize <= 0 {
		c.Catalog.DetailsCacheSize = 128
	}
	if c.Monitor.CheckIntervalSeconds <= 0 {
		c.Monitor.CheckIntervalSeconds = 60
	}
	if c.Monitor.TokenRefreshMinutes <= 0 {
		// Access tokens live ~60 minutes; refresh with headroom.
		c.Monitor.TokenRefreshMinutes = 50
	}
	if c.Monitor.CartExtendIntervalSeconds <= 0 {
		c.Monitor.CartExtendIntervalSeconds = 300
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
}

// -----------------------------------------------------------------------------

// applyEnvOverrides pulls secrets from the environment so they never have to
// live in the YAML file. Environment always wins.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DISCORD_WEBHOOK"); v != "" {
		c.Notify.DiscordWebhook = v
	}
	if v := os.Getenv("LOUNGE_DB_CONNECTION"); v != "" {
		c.Storage.DBConnectionString = v
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL cannot be empty")
	}
	if c.Catalog.AuthBaseURL == "" {
		return fmt.Errorf("catalog auth base URL cannot be empty")
	}
	if c.Catalog.SalesChannel == "" {
		return fmt.Errorf("catalog sales channel cannot be empty")
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown database type: %s", c.Storage.DBType)
	}

	if c.Notify.ProductURLBase == "" {
		return fmt.Errorf("product URL base cannot be empty")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
