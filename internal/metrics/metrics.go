// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package metrics provides Prometheus instrumentation for event
// publication, webhook delivery, and the monthly summary generator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery path label values.
const (
	PathDiscord = "discord"
	PathGeneric = "generic"
)

// Delivery outcome label values.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

var (
	// EventsPublished counts domain events published to the bus.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamsignal_events_published_total",
			Help: "Total number of domain events published to the event bus",
		},
		[]string{"event"},
	)

	// WebhookDeliveries counts delivery attempts by path and outcome.
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamsignal_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"path", "outcome"},
	)

	// DeliveryDuration observes end-to-end delivery call durations.
	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamsignal_webhook_delivery_duration_seconds",
			Help:    "Duration of webhook delivery HTTP calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SummaryBuilds counts monthly summary constructions.
	SummaryBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamsignal_summary_builds_total",
			Help: "Total number of monthly summary digest builds",
		},
		[]string{"outcome"},
	)

	// APIRequestsTotal counts API requests by endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamsignal_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)
)
