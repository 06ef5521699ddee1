// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package api provides the HTTP surface: webhook CRUD, event ingest,
// summary triggering, and health endpoints. Routing uses Chi.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the middleware knobs for the HTTP surface.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// Router assembles the Chi route tree around a Handler.
type Router struct {
	handler *Handler
	cfg     RouterConfig
}

// NewRouter creates a router for the given handler.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	if cfg.RateLimitReqs <= 0 {
		cfg.RateLimitReqs = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health gets a permissive limit so external monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByRealIP(1000, time.Minute))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByRealIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))
		r.Use(metricsMiddleware)

		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", router.handler.ListWebhooks)
			r.Post("/", router.handler.CreateWebhook)
			r.Get("/{id}", router.handler.GetWebhook)
			r.Put("/{id}", router.handler.UpdateWebhook)
			r.Delete("/{id}", router.handler.DeleteWebhook)
			r.Post("/{id}/summary", router.handler.TriggerSummary)
		})

		r.Post("/events", router.handler.IngestEvent)
		r.Get("/stats/summary", router.handler.StatsSummary)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
