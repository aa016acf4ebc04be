package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"smc-signal-engine/internal/engine"
	"smc-signal-engine/internal/store"
)

// Config is the root configuration for the signal engine service
type Config struct {
	Engine   engine.Config  `json:"engine"`
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    store.Config   `json:"redis"`
	Logging  LoggingConfig  `json:"logging"`
	ML       MLConfig       `json:"ml"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Pretty bool   `json:"pretty"` // console writer instead of JSON
}

// MLConfig holds the model artifact location
type MLConfig struct {
	ModelPath string `json:"model_path"`
}

// DefaultConfig returns a complete default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
		},
		Database: DatabaseConfig{Enabled: false},
		Redis:    store.DefaultConfig(),
		Logging:  LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from a JSON file, then applies
// environment overrides. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override the file values
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Address = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.ML.ModelPath = v
	}
}
