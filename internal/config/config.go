package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type  string      `yaml:"type"` // "memory", "file" or "mongo"
	Path  string      `yaml:"path"` // Path for file storage
	Mongo MongoConfig `yaml:"mongo"`
}

// MongoConfig holds the connection settings for the mongo backend
type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"` // Per operation
}

// HistoryConfig holds request history configuration
type HistoryConfig struct {
	MaxEntries int  `yaml:"maxEntries"` // Oldest entries are dropped past this, 0 keeps all
	Dedupe     bool `yaml:"dedupe"`     // Replace an earlier entry for the same host, url and method
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Type: "memory",
			Path: "./data",
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "go_requester",
				Timeout:  10 * time.Second,
			},
		},
		History: HistoryConfig{
			MaxEntries: 500,
			Dedupe:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromViper builds the configuration from defaults, config file and environment held by v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "file", "mongo":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.Type == "file" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for file storage")
	}
	if c.Storage.Type == "mongo" && c.Storage.Mongo.URI == "" {
		return fmt.Errorf("storage.mongo.uri is required for mongo storage")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.maxEntries must not be negative")
	}
	return nil
}
