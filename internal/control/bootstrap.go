package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/seqgate/internal/core/config"
	"github.com/vietddude/seqgate/internal/emitter"
	"github.com/vietddude/seqgate/internal/health"
	redisclient "github.com/vietddude/seqgate/internal/infra/redis"
	"github.com/vietddude/seqgate/internal/infra/storage"
	"github.com/vietddude/seqgate/internal/infra/storage/memory"
	"github.com/vietddude/seqgate/internal/infra/storage/sqlstore"
	"github.com/vietddude/seqgate/internal/network"
	"github.com/vietddude/seqgate/internal/telemetry"
)

// Open builds a Client from configuration: tracing, status cache, provider,
// journal, emitters and, when configured, the health and metrics server.
func Open(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (client *Client, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{log: logger}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	// 1. Tracing
	shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	}
	c.closers = append(c.closers, shutdown)

	stores := make(map[string]health.Pinger)

	// 2. Status cache
	var cache network.StatusCache
	networkName := cfg.Network.Name
	if networkName == "" {
		networkName = "custom"
	}
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		c.closers = append(c.closers, func(context.Context) error { return rc.Close() })
		stores["redis"] = rc
		cache = redisclient.NewStatusCache(rc, networkName)
		logger.Info("Using Redis status cache")
	case "memory":
		cache = network.NewMemoryStatusCache()
	case "":
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	// 3. Provider
	p, err := network.New(cfg.Network, network.Deps{
		Cache:    cache,
		CacheTTL: cfg.Cache.L2TTL,
		Wait:     cfg.Wait.Tracker(),
		Retry:    cfg.Retry.Transport(),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	c.provider = p
	c.network = networkName
	if closer, ok := p.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func(context.Context) error { return closer.Close() })
	}

	// 4. Journal
	var journal storage.SubmissionRepository
	if cfg.Journal.URL != "" {
		db, err := sqlstore.Open(ctx, cfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("failed to init journal: %w", err)
		}
		journal = sqlstore.NewSubmissionRepo(db)
		stores["journal"] = db
		metricsCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		db.StartMetricsCollector(metricsCtx)
		c.closers = append(c.closers, func(context.Context) error {
			stop()
			return journal.Close()
		})
		logger.Info("Using SQL journal")
	} else {
		journal = memory.NewMemoryStorage()
		logger.Debug("Using memory journal")
	}
	c.journal = journal

	// 5. Emitters
	emitters := emitter.Multi{emitter.NewLogEmitter(logger)}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := emitter.NewKafkaEmitter(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		emitters = append(emitters, k)
		logger.Info("Publishing outcomes to Kafka", "topic", cfg.Kafka.Topic)
	}
	c.emitter = emitters
	c.closers = append(c.closers, func(context.Context) error { return emitters.Close() })

	// 6. Health and metrics
	c.monitor = health.NewMonitor(network.Transports(p), stores)
	if cfg.Metrics.Listen != "" {
		srv := health.NewServer(c.monitor, cfg.Metrics.Listen)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Health server failed", "error", err)
			}
		}()
		c.closers = append(c.closers, srv.Stop)
		logger.Info("Health server listening", "addr", cfg.Metrics.Listen)
	}

	return c, nil
}
