// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/streamsignal/internal/logging"
	"github.com/tomtom215/streamsignal/internal/models"
)

// IngestEvent accepts a domain event from a media-server integration and
// publishes it to the in-process bus. Publication is fire-and-forget:
// the 202 acknowledges acceptance, not delivery. Playback stop events
// additionally land an analytics row so the monthly summary has data.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var evt models.IngestEvent
	if err := decodeJSONBody(w, r, &evt); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&evt); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}
	if evt.Data == nil {
		evt.Data = map[string]any{}
	}

	if evt.Event == models.EventPlaybackEnded {
		rec := playbackRecordFromData(evt.Data)
		if err := h.store.InsertPlaybackRecord(r.Context(), rec); err != nil {
			// Analytics persistence must not block notification fan-out.
			logging.Error().Err(err).Str("event", evt.Event).Msg("Failed to record playback event")
		}
	}

	if err := h.publisher.Publish(r.Context(), evt.Event, evt.Data); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to publish event", err)
		return
	}

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"event": evt.Event, "state": "accepted"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// playbackRecordFromData maps the loosely-typed event data tree onto an
// analytics row. Missing fields zero out rather than failing the ingest.
func playbackRecordFromData(data map[string]any) *models.PlaybackRecord {
	now := time.Now().UTC()
	rec := &models.PlaybackRecord{
		ID:               uuid.New().String(),
		UserID:           intField(data, "user_id"),
		Username:         stringField(data, "username"),
		MediaType:        stringField(data, "media_type"),
		Title:            stringField(data, "title"),
		GrandparentTitle: stringField(data, "grandparent_title"),
		PlayDuration:     intField(data, "play_duration"),
		StartedAt:        now,
		StoppedAt:        &now,
	}
	if t, ok := timeField(data, "started_at"); ok {
		rec.StartedAt = t
	}
	if t, ok := timeField(data, "stopped_at"); ok {
		rec.StoppedAt = &t
	}
	return rec
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func timeField(data map[string]any, key string) (time.Time, bool) {
	s, ok := data[key].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
