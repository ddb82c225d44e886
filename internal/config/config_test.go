package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host '0.0.0.0', got %q", cfg.Server.Host)
	}

	// Storage defaults
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Mongo.Timeout != 10*time.Second {
		t.Errorf("Expected default mongo timeout 10s, got %v", cfg.Storage.Mongo.Timeout)
	}

	// History defaults
	if cfg.History.MaxEntries != 500 {
		t.Errorf("Expected default max entries 500, got %d", cfg.History.MaxEntries)
	}
	if !cfg.History.Dedupe {
		t.Error("Expected dedupe to be enabled by default")
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected default log format 'json', got %q", cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: localhost
storage:
  type: mongo
  mongo:
    uri: mongodb://db:27017
    timeout: 3s
history:
  maxEntries: 20
  dedupe: false
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got %q", cfg.Server.Host)
	}
	if cfg.Storage.Type != "mongo" {
		t.Errorf("Expected storage type 'mongo', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("Expected mongo uri, got %q", cfg.Storage.Mongo.URI)
	}
	if cfg.Storage.Mongo.Database != "go_requester" {
		t.Errorf("Expected default database to survive, got %q", cfg.Storage.Mongo.Database)
	}
	if cfg.Storage.Mongo.Timeout != 3*time.Second {
		t.Errorf("Expected timeout 3s, got %v", cfg.Storage.Mongo.Timeout)
	}
	if cfg.History.MaxEntries != 20 {
		t.Errorf("Expected max entries 20, got %d", cfg.History.MaxEntries)
	}
	if cfg.History.Dedupe {
		t.Error("Expected dedupe to be disabled")
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Expected debug/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestFromViper(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 7070)
	v.Set("storage.type", "file")
	v.Set("storage.path", "/var/lib/requester")
	v.Set("history.maxEntries", 5)

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("FromViper failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host to survive, got %q", cfg.Server.Host)
	}
	if cfg.Storage.Type != "file" || cfg.Storage.Path != "/var/lib/requester" {
		t.Errorf("Expected file storage at /var/lib/requester, got %s at %s", cfg.Storage.Type, cfg.Storage.Path)
	}
	if cfg.History.MaxEntries != 5 {
		t.Errorf("Expected max entries 5, got %d", cfg.History.MaxEntries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage", func(c *Config) { c.Storage.Type = "redis" }},
		{"file without path", func(c *Config) { c.Storage.Type = "file"; c.Storage.Path = "" }},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongo"; c.Storage.Mongo.URI = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"negative history", func(c *Config) { c.History.MaxEntries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
