// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"challenge-checkout/internal/errors"
	"challenge-checkout/internal/logging"
)

// Environment variable overrides applied after file loading.
const (
	EnvBaseURL        = "CHECKOUT_BASE_URL"
	EnvConsumerKey    = "CHECKOUT_CONSUMER_KEY"
	EnvConsumerSecret = "CHECKOUT_CONSUMER_SECRET"
	EnvServerAddr     = "CHECKOUT_ADDR"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Commerce contains commerce backend settings
	Commerce CommerceConfig `json:"commerce" yaml:"commerce"`

	// Catalog contains product catalog settings
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Server contains storefront API server settings
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// CommerceConfig contains commerce backend settings
type CommerceConfig struct {
	// BaseURL is the commerce backend site URL
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ConsumerKey is the optional API consumer key for server-side calls.
	// The public Store API cart flows do not require it.
	ConsumerKey string `json:"consumer_key,omitempty" yaml:"consumer_key,omitempty"`

	// ConsumerSecret is the optional API consumer secret
	ConsumerSecret string `json:"consumer_secret,omitempty" yaml:"consumer_secret,omitempty"`

	// TimeoutSeconds bounds each HTTP round trip
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// RequestsPerSecond limits outbound calls to the backend
	RequestsPerSecond int `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the rate limiter burst size
	Burst int `json:"burst" yaml:"burst"`

	// UserAgent is sent on every request
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig contains product catalog settings
type CatalogConfig struct {
	// Path is an optional HCL file overriding the built-in product tables
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ServerConfig contains storefront API server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Commerce: CommerceConfig{
			BaseURL:           "https://your-site.com",
			TimeoutSeconds:    30,
			RequestsPerSecond: 10,
			Burst:             5,
			UserAgent:         "challenge-checkout/1.0",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a JSON or YAML file, then applies
// environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnv()
			return config, nil
		}
		return nil, errors.Config("reading config file", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Config("parsing yaml config", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Config("parsing json config", err)
		}
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overrides file settings with environment values
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Commerce.BaseURL = v
	}
	if v := os.Getenv(EnvConsumerKey); v != "" {
		c.Commerce.ConsumerKey = v
	}
	if v := os.Getenv(EnvConsumerSecret); v != "" {
		c.Commerce.ConsumerSecret = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
