package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pagegate/pagegate/internal/config"
	"github.com/pagegate/pagegate/internal/core/cache"
	"github.com/pagegate/pagegate/internal/core/fetcher"
	"github.com/pagegate/pagegate/internal/core/gateway"
	"github.com/pagegate/pagegate/internal/core/ratelimit"
	"github.com/pagegate/pagegate/internal/core/sweep"
	apperrors "github.com/pagegate/pagegate/internal/errors"
	"github.com/pagegate/pagegate/internal/observability"
	"github.com/pagegate/pagegate/internal/server"
	"github.com/pagegate/pagegate/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for the signal system
type signalHealthChecker struct{}

func (signalHealthChecker) CheckHealth(ctx context.Context) error {
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return apperrors.NewInternal("telemetry system not initialized", "internal")
	}
	return nil
}

// pipelineHealthChecker verifies the fetch pipeline components exist.
type pipelineHealthChecker struct {
	limiter *ratelimit.Limiter
	gateway *gateway.Service
}

func (p pipelineHealthChecker) CheckHealth(ctx context.Context) error {
	if p.limiter == nil || p.gateway == nil {
		return apperrors.NewInternal("fetch pipeline not initialized", "internal")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the fetch proxy HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()

		observability.InitServerLogger(appName, cfg.Logging.Level)

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(appName, cfg.Metrics.Port); err != nil {
				observability.ServerLogger.Error("Failed to initialize metrics",
					zap.Error(err))
				return fmt.Errorf("metrics initialization failed: %w", err)
			}
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", cfg.Metrics.Port),
			zap.Int("rate_limit", cfg.RateLimit.Requests),
			zap.Duration("rate_window", cfg.RateLimit.Window),
			zap.Duration("cache_ttl", cfg.Cache.TTL),
			zap.Duration("fetch_timeout", cfg.Fetch.Timeout),
			zap.Int64("max_bytes", cfg.Fetch.MaxBytes))

		// Build the fetch pipeline from config.
		limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		bodyCache := cache.New(cfg.Cache.TTL)
		upstream := fetcher.New(cfg.Fetch.Timeout)
		if cfg.Fetch.UserAgent != "" {
			upstream.UserAgent = cfg.Fetch.UserAgent
		}
		gw := gateway.New(bodyCache, upstream, cfg.Fetch.MaxBytes)
		fetchHandler := handlers.NewFetchHandler(limiter, gw)

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("fetch_pipeline", pipelineHealthChecker{limiter: limiter, gateway: gw})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		srv := server.New(cfg.Server.Host, cfg.Server.Port, fetchHandler)

		// Background eviction of expired cache entries and stale windows.
		sweepCtx, stopSweeps := context.WithCancel(context.Background())
		cacheSweeper := sweep.NewRunner("cache", cfg.Sweep.Interval, bodyCache.Sweep)
		limiterSweeper := sweep.NewRunner("rate_limit", cfg.Sweep.Interval, limiter.Sweep)
		cacheSweeper.Start(sweepCtx)
		limiterSweeper.Start(sweepCtx)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Graceful shutdown handlers run LIFO: server first, sweepers, then
		// the logger flush.
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Stopping sweepers...")
			stopSweeps()
			cacheSweeper.Stop()
			limiterSweeper.Stop()
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return fmt.Errorf("config reload failed: %w", err)
			}

			if _, err := config.Load(); err != nil {
				observability.ServerLogger.Error("Reloaded config is invalid; keeping previous settings",
					zap.Error(err))
				return nil
			}

			// Limiter, cache, and fetcher settings only apply to new
			// instances; a restart is required for those.
			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
