// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/streamsignal/internal/models"
)

// WebhookStore is the persistence surface the handlers need.
type WebhookStore interface {
	ListWebhooks(ctx context.Context) ([]models.Webhook, error)
	GetWebhook(ctx context.Context, id string) (*models.Webhook, error)
	CreateWebhook(ctx context.Context, req *models.WebhookRequest) (*models.Webhook, error)
	UpdateWebhook(ctx context.Context, id string, req *models.WebhookRequest) (*models.Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
	InsertPlaybackRecord(ctx context.Context, rec *models.PlaybackRecord) error
	Ping(ctx context.Context) error
}

// EventPublisher publishes domain events to the in-process bus.
type EventPublisher interface {
	Publish(ctx context.Context, event string, data map[string]any) error
}

// SummaryDispatcher triggers scheduled summary deliveries and builds the
// digest for the read-only stats endpoint.
type SummaryDispatcher interface {
	TriggerSummaryWebhook(ctx context.Context, webhookID string) error
	BuildMonthlySummary(ctx context.Context) (*models.MonthlySummary, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	store      WebhookStore
	publisher  EventPublisher
	dispatcher SummaryDispatcher
	version    string
	startTime  time.Time
}

// NewHandler creates the endpoint handler.
func NewHandler(store WebhookStore, publisher EventPublisher, dispatcher SummaryDispatcher, version string) *Handler {
	return &Handler{
		store:      store,
		publisher:  publisher,
		dispatcher: dispatcher,
		version:    version,
		startTime:  time.Now(),
	}
}

// Health reports process and dependency health. Degraded database
// connectivity reports 503 so load balancers stop routing.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := h.store.Ping(r.Context()) == nil

	status := "healthy"
	code := http.StatusOK
	if !dbOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, &models.APIResponse{
		Status: "success",
		Data: models.HealthStatus{
			Status:            status,
			Version:           h.version,
			DatabaseConnected: dbOK,
			Uptime:            time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive is the liveness probe: process up, nothing else checked.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
