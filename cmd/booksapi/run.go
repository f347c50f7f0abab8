package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"bookshelf-hq/booksapi/pkg/cli"
	"bookshelf-hq/booksapi/pkg/config"
	"bookshelf-hq/booksapi/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Books API server",
	Long: `Start the Books API server with the specified configuration.

The server listens on the configured address, serves the book catalogue and
exposes Prometheus metrics, health probes and build information.

Examples:
  # Start with default config
  booksapi run

  # Start with custom config
  booksapi run --config /etc/booksapi/config.yaml

  # Override listen address
  booksapi run --listen 0.0.0.0:8080

  # Reload the log level when the config file changes
  booksapi run --config config.yaml --watch

  # Validate config without starting server
  booksapi run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "watch the config file and apply log level changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.watch && cfgFile == "" {
		return cli.NewConfigError("config", "--watch requires --config")
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	slog.Info("starting books API",
		"version", Version,
		"config", cfgFile,
		"storage", cfg.Storage.Backend,
		"metrics", cfg.Telemetry.Metrics.Enabled,
		"tracing", cfg.Telemetry.Tracing.Enabled,
	)

	a, err := newApp(ctx, cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.close(closeCtx); err != nil {
			slog.Error("shutdown cleanup failed", "error", err)
		}
	}()

	if runFlags.watch {
		if err := startWatcher(ctx, cfgFile, cfg, logger); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	if err := a.run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	slog.Info("books API stopped")
	return nil
}

// startWatcher reloads path on change and applies the hot-reloadable
// settings. Everything else requires a restart.
func startWatcher(ctx context.Context, path string, cfg *config.Config, logger *logging.Logger) error {
	w, err := config.NewWatcher(path, cfg, func(next *config.Config) {
		applyReload(logger, next)
	}, logger.Slog())
	if err != nil {
		return err
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()
	return nil
}

func applyReload(logger *logging.Logger, next *config.Config) {
	level := next.Telemetry.Logging.Level
	if err := logger.SetLevel(level); err != nil {
		slog.Warn("ignoring reloaded log level", "level", level, "error", err)
		return
	}
	slog.Info("log level updated", "level", level)
}
