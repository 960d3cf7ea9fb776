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

	"github.com/regionpulse/regionpulse/internal/alerts"
	"github.com/regionpulse/regionpulse/internal/api"
	"github.com/regionpulse/regionpulse/internal/config"
	"github.com/regionpulse/regionpulse/internal/metrics"
	"github.com/regionpulse/regionpulse/internal/promexport"
	"github.com/regionpulse/regionpulse/internal/telemetry"
	"github.com/regionpulse/regionpulse/internal/ws"
)

const overviewInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dataPath := flag.String("data", "", "override the dataset path from the config")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("regionpulse-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.Server.Dataset.Path = *dataPath
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"dataset", cfg.Server.Dataset.Path,
		"uptime_unit", cfg.Server.Metrics.UptimeUnit,
		"alert_rules", len(cfg.Server.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Telemetry store — loads once, soft-fails to empty on a bad dataset.
	store := telemetry.Load(cfg.Server.Dataset.Path, telemetry.Options{
		CaseInsensitive: cfg.Server.Dataset.CaseInsensitive,
	})
	if cfg.Server.Dataset.Watch {
		go func() {
			if err := telemetry.Watch(ctx, store); err != nil {
				slog.Error("telemetry: watch stopped", "err", err)
			}
		}()
	}

	engine := metrics.New(metrics.Options{
		UptimeUnit:    cfg.Server.Metrics.UptimeUnit,
		LatencyFields: cfg.Server.Metrics.LatencyFields,
	})

	// Alerts engine — evaluates rules on every computed summary.
	alertEngine := alerts.New(cfg.Server.Alerts)

	collector := promexport.New(store)

	// WebSocket hub — broadcasts the dataset overview to UI clients.
	hub := ws.New(store, overviewInterval)
	go hub.Run(ctx)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(store, engine, alertEngine, collector))
	httpMux.Handle("/metrics", collector)
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("regionpulse-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
