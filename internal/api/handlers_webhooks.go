// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/streamsignal/internal/database"
	"github.com/tomtom215/streamsignal/internal/models"
)

// ListWebhooks returns every configured webhook, enabled or not.
func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := h.store.ListWebhooks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to list webhooks", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     webhooks,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetWebhook returns a single webhook by identifier.
func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wh, err := h.store.GetWebhook(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrWebhookNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "webhook not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load webhook", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     wh,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// CreateWebhook creates a webhook from the request body.
func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req models.WebhookRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}
	if apiErr := validateTriggerFields(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	wh, err := h.store.CreateWebhook(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to create webhook", err)
		return
	}

	respondJSON(w, http.StatusCreated, &models.APIResponse{
		Status:   "success",
		Data:     wh,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// UpdateWebhook replaces a webhook's configuration.
func (h *Handler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.WebhookRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}
	if apiErr := validateTriggerFields(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	wh, err := h.store.UpdateWebhook(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, database.ErrWebhookNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "webhook not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to update webhook", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     wh,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// DeleteWebhook removes a webhook permanently.
func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteWebhook(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrWebhookNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "webhook not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to delete webhook", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"id": id, "deleted": "true"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// validateTriggerFields enforces the cross-field rule the tag-based
// validator cannot express: event-triggered webhooks must name an event.
func validateTriggerFields(req *models.WebhookRequest) *models.APIError {
	if req.TriggerType == models.TriggerEvent && req.EventType == "" {
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: "event_type is required for event-triggered webhooks",
		}
	}
	return nil
}

// respondValidationError writes a 400 with structured field details.
func respondValidationError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}
