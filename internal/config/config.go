// Package config loads service settings from an optional YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the optional YAML config path
const FileEnv = "STOREFRONT_CONFIG"

// Config holds the settings shared by the storefront services
type Config struct {
	BackendURL           string        `yaml:"backend_url"`
	ListenAddr           string        `yaml:"listen_addr"`
	MockListenAddr       string        `yaml:"mock_listen_addr"`
	LogLevel             string        `yaml:"log_level"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	NotificationDuration time.Duration `yaml:"notification_duration"`
	BulkheadSize         int           `yaml:"bulkhead_size"`
	BulkheadWait         time.Duration `yaml:"bulkhead_wait"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		BackendURL:           "http://localhost:5555",
		ListenAddr:           ":8080",
		MockListenAddr:       ":5555",
		LogLevel:             "info",
		RequestTimeout:       10 * time.Second,
		NotificationDuration: 3 * time.Second,
		BulkheadSize:         10,
		BulkheadWait:         time.Second,
	}
}

// Load starts from Default, applies the YAML file named by STOREFRONT_CONFIG
// if set, then applies environment overrides
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.BackendURL = getEnv("BACKEND_URL", c.BackendURL)
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.MockListenAddr = getEnv("MOCK_LISTEN_ADDR", c.MockListenAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.NotificationDuration = getEnvDuration("NOTIFICATION_DURATION", c.NotificationDuration)
	c.BulkheadSize = getEnvInt("BULKHEAD_SIZE", c.BulkheadSize)
	c.BulkheadWait = getEnvDuration("BULKHEAD_WAIT", c.BulkheadWait)
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
