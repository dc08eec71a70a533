// Package cli implements the seqctl command line.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/seqgate/internal/control"
	"github.com/vietddude/seqgate/internal/core/config"
)

// defaultConfigPath is read when present and --config is not given.
const defaultConfigPath = "seqgate.yaml"

type options struct {
	cfgPath string
	network string
	isDebug bool
	asJSON  bool
}

// NewRootCmd builds the seqctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "seqctl",
		Short:         "Sequencer gateway client",
		Long:          `seqctl deploys and invokes contracts through a sequencer gateway or node and tracks their transactions to finality.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file (default is seqgate.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&opts.network, "network", "", "network name or preset, overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&opts.isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newDeployCmd(opts),
		newInvokeCmd(opts),
		newCallCmd(opts),
		newExecCmd(opts),
		newStatusCmd(opts),
		newWaitCmd(opts),
		newTraceCmd(opts),
		newCodeCmd(opts),
		newAddressesCmd(opts),
		newHistoryCmd(opts),
		newHealthCmd(opts),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure. SIGINT and
// SIGTERM cancel the running command, which still closes its client.
func Execute() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	if err != nil {
		if interrupted {
			slog.Info("Received signal, command cancelled")
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func (o *options) loadConfig() (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	switch {
	case o.cfgPath != "":
		cfg, err = config.Load(o.cfgPath)
	default:
		if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
			cfg, err = config.Load(defaultConfigPath)
		} else if errors.Is(statErr, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			err = statErr
		}
	}
	if err != nil {
		return nil, err
	}

	if o.network != "" {
		cfg.Network.Name = o.network
		cfg.Network.BaseURL = ""
	}
	return cfg, nil
}

func (o *options) setupLogging(cfg *config.AppConfig) {
	slogLevel := slog.LevelInfo
	switch {
	case o.isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	if cfg.Logging.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
}

// open loads configuration and builds a client. The caller closes it.
func (o *options) open(ctx context.Context) (*control.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	o.setupLogging(cfg)
	return control.Open(ctx, cfg, slog.Default())
}

// run opens a client, hands it to fn and closes it afterwards.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, c *control.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.Close(shutdownCtx); err != nil {
			slog.Warn("Error during shutdown", "error", err)
		}
	}()
	return fn(ctx, c)
}
