// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package models defines the shared data types for StreamSignal:
// webhook records, domain events, the monthly summary digest, and the
// API response envelope.
package models

import "time"

// TriggerType classifies how a webhook is invoked.
type TriggerType string

const (
	// TriggerEvent webhooks fire when a matching domain event is published.
	TriggerEvent TriggerType = "event"
	// TriggerScheduled webhooks fire when invoked externally by identifier.
	TriggerScheduled TriggerType = "scheduled"
)

// Valid returns true for a known trigger type.
func (t TriggerType) Valid() bool {
	return t == TriggerEvent || t == TriggerScheduled
}

// Webhook is the persisted configuration for one outbound notification
// target. Headers and Payload are parsed once at the store boundary from
// their JSON column representation; ConfigError carries a row-level parse
// failure so the dispatch engine can fail that webhook in isolation
// instead of failing the whole lookup.
type Webhook struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Payload     any               `json:"payload,omitempty"`
	TriggerType TriggerType       `json:"trigger_type"`
	EventType   string            `json:"event_type,omitempty"`
	Enabled     bool              `json:"enabled"`

	// LastTriggered is the most recent time a delivery call completed.
	LastTriggered *time.Time `json:"last_triggered,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`

	// ConfigError records a headers/payload parse failure detected when
	// the row was loaded. Never serialized; checked by the dispatcher.
	ConfigError string `json:"-"`
}

// WebhookRequest is the CRUD input shape for creating or updating a
// webhook. Headers and Payload arrive as structured JSON; string-encoded
// variants are not accepted on this surface.
type WebhookRequest struct {
	Name        string            `json:"name" validate:"required,max=255"`
	URL         string            `json:"url" validate:"required,url"`
	Method      string            `json:"method,omitempty" validate:"omitempty,oneof=POST PUT PATCH GET DELETE"`
	Headers     map[string]string `json:"headers,omitempty"`
	Payload     any               `json:"payload,omitempty"`
	TriggerType TriggerType       `json:"trigger_type" validate:"required,oneof=event scheduled"`
	EventType   string            `json:"event_type,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
}
