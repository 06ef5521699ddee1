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

	"github.com/tomtom215/streamsignal/internal/dispatch"
	"github.com/tomtom215/streamsignal/internal/models"
)

// TriggerSummary builds the previous-month digest and delivers it to the
// named webhook. Intended to be hit by an external scheduler (cron or a
// systemd timer) on the first of the month.
func (h *Handler) TriggerSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.dispatcher.TriggerSummaryWebhook(r.Context(), id)
	if err != nil {
		if errors.Is(err, dispatch.ErrSummaryWebhookNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "webhook not found or disabled", nil)
			return
		}
		respondError(w, http.StatusBadGateway, "DISPATCH_ERROR", "summary delivery failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"webhook_id": id, "state": "delivered"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// StatsSummary returns the previous-month digest without delivering it
// anywhere. Useful for previewing what the summary webhook will send.
func (h *Handler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dispatcher.BuildMonthlySummary(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to build summary", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     summary,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
