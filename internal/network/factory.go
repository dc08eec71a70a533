package network

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/seqgate/internal/core/domain"
	"github.com/vietddude/seqgate/internal/infra/rpc"
	"github.com/vietddude/seqgate/internal/waittx"
)

// Provider kinds.
const (
	KindGateway = "gateway"
	KindNode    = "node"
)

// Public sequencer base URLs by network name.
var Presets = map[string]string{
	"mainnet-alpha":  "https://alpha-mainnet.starknet.io",
	"goerli-alpha":   "https://alpha4.starknet.io",
	"goerli-alpha-2": "https://alpha4-2.starknet.io",
	"devnet":         "http://127.0.0.1:5050",
}

// Config selects and parameterizes a provider.
type Config struct {
	// Name of the network, e.g. "goerli-alpha". Known names need no BaseURL.
	Name string `yaml:"name"`
	// Kind is "gateway" (default) or "node".
	Kind string `yaml:"kind"`
	// BaseURL of the sequencer or node.
	BaseURL string `yaml:"base_url"`
	// Fallbacks are extra base URLs tried when BaseURL fails.
	Fallbacks []string `yaml:"fallbacks"`
	// FeederGatewayURL and GatewayURL are paths relative to the base URL, or
	// absolute URLs.
	FeederGatewayURL string `yaml:"feeder_gateway_url"`
	GatewayURL       string `yaml:"gateway_url"`
	// Timeout per HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// Devnet marks a local network lacking L1 features.
	Devnet bool `yaml:"devnet"`
}

// Deps are optional collaborators of New.
type Deps struct {
	Cache    StatusCache
	CacheTTL time.Duration
	Wait     waittx.Config
	Retry    rpc.RetryConfig
	Logger   *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Kind == "" {
		c.Kind = KindGateway
	}
	if c.BaseURL == "" {
		c.BaseURL = Presets[c.Name]
	}
	if c.Name == "" {
		c.Name = "custom"
	}
	if c.FeederGatewayURL == "" {
		c.FeederGatewayURL = "feeder_gateway"
	}
	if c.GatewayURL == "" {
		c.GatewayURL = "gateway"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Name == "devnet" {
		c.Devnet = true
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	c.applyDefaults()
	if c.BaseURL == "" {
		return fmt.Errorf("%w: network %q has no base_url", domain.ErrConfiguration, c.Name)
	}
	for _, raw := range append([]string{c.BaseURL}, c.Fallbacks...) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: invalid base url %q", domain.ErrConfiguration, raw)
		}
	}
	switch c.Kind {
	case KindGateway, KindNode:
	default:
		return fmt.Errorf("%w: unknown provider kind %q", domain.ErrConfiguration, c.Kind)
	}
	return nil
}

// New builds the provider variant named by cfg.Kind, wrapped in a
// CachedProvider when deps.Cache is set.
func New(cfg Config, deps Deps) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if w := deps.Wait; w.Interval == 0 && w.MaxAttempts == 0 && w.Timeout == 0 && w.Backoff == nil {
		deps.Wait = waittx.DefaultConfig()
		deps.Wait.RequireL1 = w.RequireL1
	}
	if deps.Retry.MaxAttempts == 0 {
		deps.Retry = rpc.DefaultRetryConfig
	}

	bases := append([]string{cfg.BaseURL}, cfg.Fallbacks...)

	var p Provider
	switch cfg.Kind {
	case KindNode:
		client := rpc.NewGateway(cfg.Name, bases, cfg.Timeout, deps.Retry)
		p = NewNodeProvider(cfg.Name, client, deps.Wait, deps.Logger)
	default:
		gateway := rpc.NewGateway(cfg.Name+"-gateway", endpoints(bases, cfg.GatewayURL), cfg.Timeout, deps.Retry)
		feeder := rpc.NewGateway(cfg.Name+"-feeder", endpoints(bases, cfg.FeederGatewayURL), cfg.Timeout, deps.Retry)
		p = NewGatewayProvider(cfg.Name, gateway, feeder, cfg.Devnet, deps.Wait, deps.Logger)
	}

	if deps.Cache != nil {
		p = NewCachedProvider(p, deps.Cache, deps.CacheTTL, deps.Wait, deps.Logger.With("network", cfg.Name))
	}
	return p, nil
}

// endpoints joins path onto each base. An absolute path replaces the bases.
func endpoints(bases []string, path string) []string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return []string{path}
	}
	out := make([]string, len(bases))
	for i, base := range bases {
		out[i] = strings.TrimRight(base, "/") + "/" + strings.Trim(path, "/")
	}
	return out
}
