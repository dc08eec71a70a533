package config

import (
	"time"

	"github.com/vietddude/seqgate/internal/emitter"
	redisclient "github.com/vietddude/seqgate/internal/infra/redis"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/infra/storage/sqlstore"
	"github.com/vietddude/seqgate/internal/network"
	"github.com/vietddude/seqgate/internal/telemetry"
	"github.com/vietddude/seqgate/internal/waittx"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Network   network.Config      `yaml:"network"`
	Wait      WaitConfig          `yaml:"wait"`
	Retry     RetryConfig         `yaml:"retry"`
	Cache     CacheConfig         `yaml:"cache"`
	Redis     redisclient.Config  `yaml:"redis"`
	Journal   sqlstore.Config     `yaml:"journal"`
	Kafka     emitter.KafkaConfig `yaml:"kafka"`
	Telemetry telemetry.Config    `yaml:"telemetry"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Logging   LoggingConfig       `yaml:"logging"`
}

// WaitConfig is the transaction wait budget.
type WaitConfig struct {
	waittx.Config `yaml:",inline"`
	Backoff       BackoffConfig `yaml:"backoff"`
}

// BackoffConfig selects the polling cadence.
type BackoffConfig struct {
	Kind       string        `yaml:"kind"` // constant, exponential
	Initial    time.Duration `yaml:"initial"`
	Multiplier float64       `yaml:"multiplier"`
	Max        time.Duration `yaml:"max"`
	Jitter     float64       `yaml:"jitter"`
}

// Tracker converts the section into a tracker configuration.
func (w WaitConfig) Tracker() waittx.Config {
	cfg := w.Config
	if w.Backoff.Kind == "exponential" {
		cfg.Backoff = waittx.ExponentialBackoff{
			Initial:    w.Backoff.Initial,
			Multiplier: w.Backoff.Multiplier,
			Max:        w.Backoff.Max,
			Jitter:     w.Backoff.Jitter,
		}
	}
	return cfg
}

// RetryConfig holds transport retry settings.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// Transport converts the section into the transport's retry settings.
func (r RetryConfig) Transport() rpc.RetryConfig {
	return rpc.RetryConfig{
		MaxAttempts:     r.MaxAttempts,
		InitialDelay:    r.InitialDelay,
		MaxDelay:        r.MaxDelay,
		BackoffMultiple: r.BackoffMultiple,
	}
}

// CacheConfig controls the terminal status cache.
type CacheConfig struct {
	// Backend is "redis", "memory" or "" (disabled).
	Backend string        `yaml:"backend"`
	L2TTL   time.Duration `yaml:"l2_ttl"`
}

// MetricsConfig holds the health and metrics HTTP server settings.
type MetricsConfig struct {
	// Listen address, e.g. ":9090". Empty disables the server.
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
