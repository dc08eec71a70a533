package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/seqgate/internal/network"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Network.Name == "" && c.Network.BaseURL == "" {
		c.Network.Name = "devnet"
	}
	if c.Network.Kind == "" {
		c.Network.Kind = network.KindGateway
	}

	if c.Wait.Interval == 0 {
		c.Wait.Interval = 5 * time.Second
	}
	if c.Wait.Timeout == 0 && c.Wait.MaxAttempts == 0 {
		c.Wait.Timeout = 10 * time.Minute
	}
	if c.Wait.Backoff.Kind == "" {
		c.Wait.Backoff.Kind = "constant"
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = 500 * time.Millisecond
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 10 * time.Second
	}
	if c.Retry.BackoffMultiple == 0 {
		c.Retry.BackoffMultiple = 2
	}

	if c.Cache.Backend == "" && c.Redis.URL != "" {
		c.Cache.Backend = "redis"
	}
	if c.Cache.L2TTL == 0 {
		c.Cache.L2TTL = network.DefaultL2TTL
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "seqgate"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
