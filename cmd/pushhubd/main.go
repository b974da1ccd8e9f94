// Command pushhubd serves the HTTP long-polling update-distribution tier.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantflow/pushhub"
	"github.com/quantflow/pushhub/changefeed"
	"github.com/quantflow/pushhub/engine"
	"github.com/quantflow/pushhub/internal/logging"
	"github.com/quantflow/pushhub/internal/metrics"
	"github.com/quantflow/pushhub/internal/rest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pushhubd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	collector := metrics.NewPrometheus(nil, "pushhub")

	opts := []pushhub.Option{
		pushhub.WithLogger(logger),
		pushhub.WithMetrics(collector),
	}

	var feed *changefeed.NATS
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()

		feed = changefeed.NewNATS(nc, cfg.NATS.SubjectPrefix, logger)
		if err := feed.Start(); err != nil {
			return err
		}
		defer func() { _ = feed.Stop() }()

		opts = append(opts, pushhub.WithChangeSources(feed))
	}

	mgr, err := pushhub.NewManager(&pushhub.Config{
		PollTimeout:        cfg.PollTimeout.Std(),
		EvictInterval:      cfg.EvictInterval.Std(),
		DefaultWatchActive: cfg.DefaultWatchActive,
	}, engine.NewStatic(), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mgr.Stop(shutdownCtx)
	}()

	server := rest.NewServer(&rest.ServerConfig{
		Address:     cfg.Listen,
		PollTimeout: cfg.PollTimeout.Std(),
		Metrics:     collector,
	}, mgr, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- server.Start() }()

	var metricsServer *http.Server
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return server.Shutdown(shutdownCtx)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
