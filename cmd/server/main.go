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

	"github.com/joho/godotenv"

	"github.com/pulserelay/pulserelay/internal/config"
	"github.com/pulserelay/pulserelay/internal/ingress"
	"github.com/pulserelay/pulserelay/internal/metrics"
	"github.com/pulserelay/pulserelay/internal/registry"
	"github.com/pulserelay/pulserelay/internal/relay"
	"github.com/pulserelay/pulserelay/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Local development convenience; a missing .env is fine.
	godotenv.Load() //nolint:errcheck

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("pulserelay starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"cors_origin", cfg.Server.CORSOrigin,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Membership registry and fan-out router over the WebSocket hub.
	reg := registry.New()
	stats := &metrics.Collector{}
	hub := ws.NewHub()
	router := relay.NewRouter(reg, hub, stats)
	hub.Bind(router)
	go hub.Run(ctx)

	api := ingress.New(router, hub, stats, cfg.Server.CORSOrigin)

	// Hot-reload the allowed CORS origin when the config file changes.
	if _, statErr := os.Stat(*configPath); statErr == nil {
		go func() {
			if err := config.Watch(ctx, *configPath, cfg, func(c *config.Config) {
				api.SetAllowedOrigin(c.Server.CORSOrigin)
			}); err != nil {
				slog.Warn("config: watch unavailable", "err", err)
			}
		}()
	}

	httpMux := http.NewServeMux()
	httpMux.Handle("/ws", hub)
	httpMux.Handle("/metrics", metrics.Handler(stats, hub.Count, reg.Instances))
	httpMux.Handle("/", api)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpMux,
	}
	go func() {
		slog.Info("relay listening", "port", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("pulserelay shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
