// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package main is the entry point for the StreamSignal server.
//
// StreamSignal routes media-server domain events (playback started,
// playback ended, media added) to user-configured webhooks, with a
// Discord-aware delivery path and a monthly watch-statistics digest.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 with layered sources (defaults, config
//     file, environment variables)
//  2. Database: DuckDB holding webhook configs and playback analytics
//  3. Event bus: Watermill in-process pub/sub wiring events to the
//     dispatch engine
//  4. HTTP server: Chi router with webhook CRUD, event ingest, summary
//     trigger, and health endpoints
//  5. Supervisor tree: suture supervising the bus and HTTP server
//
// Graceful shutdown runs on SIGINT and SIGTERM: the HTTP server drains
// in-flight requests (10s timeout), the bus router stops, and the
// database closes. In-flight webhook deliveries are never canceled; they
// run to their own delivery timeout.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/streamsignal/internal/api"
	"github.com/tomtom215/streamsignal/internal/bus"
	"github.com/tomtom215/streamsignal/internal/config"
	"github.com/tomtom215/streamsignal/internal/database"
	"github.com/tomtom215/streamsignal/internal/dispatch"
	"github.com/tomtom215/streamsignal/internal/logging"
	"github.com/tomtom215/streamsignal/internal/supervisor"
	"github.com/tomtom215/streamsignal/internal/supervisor/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting StreamSignal")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus, err := bus.New(bus.DefaultConfig(), bus.NewWatermillLogger(logging.Logger()))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event bus")
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	dispatcher := dispatch.NewDispatcher(db, db, dispatch.Config{
		Timeout:         cfg.Delivery.Timeout,
		SummaryTopLimit: cfg.Summary.TopLimit,
	})
	dispatcher.RegisterEventHandlers(eventBus)

	handler := api.NewHandler(db, eventBus, dispatcher, version)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:     cfg.Security.CORSOrigins,
		RateLimitReqs:   cfg.Security.RateLimitReqs,
		RateLimitWindow: cfg.Security.RateLimitWindow,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddMessagingService(services.NewBusService(eventBus))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("StreamSignal stopped gracefully")
}
