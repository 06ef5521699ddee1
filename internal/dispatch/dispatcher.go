// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package dispatch implements the webhook event dispatch engine: template
// compilation, concurrent fault-isolated delivery fan-out with a Discord
// delivery path, and the monthly summary generator.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/streamsignal/internal/bus"
	"github.com/tomtom215/streamsignal/internal/logging"
	"github.com/tomtom215/streamsignal/internal/metrics"
	"github.com/tomtom215/streamsignal/internal/models"
)

// Registry is the webhook lookup and bookkeeping contract the engine
// depends on. Implemented by *database.DB.
type Registry interface {
	// ListEnabledWebhooks returns enabled webhooks for a trigger type and,
	// for event triggers, an event name. Empty is a valid result.
	ListEnabledWebhooks(ctx context.Context, trigger models.TriggerType, eventType string) ([]models.Webhook, error)

	// GetEnabledWebhookByID returns one enabled webhook, or (nil, nil)
	// when the id is unknown or the webhook is disabled.
	GetEnabledWebhookByID(ctx context.Context, id string) (*models.Webhook, error)

	// TouchLastTriggered records a delivery timestamp. Best-effort.
	TouchLastTriggered(ctx context.Context, id string) error
}

// Analytics is the read-only watch-statistics contract the summary
// generator depends on. Implemented by *database.DB.
type Analytics interface {
	TopContent(ctx context.Context, kind models.ContentKind, start, end time.Time, limit int) ([]models.TopContentEntry, error)
	AggregateStats(ctx context.Context, start, end time.Time) (*models.WatchStats, error)
}

// Config holds dispatch engine settings.
type Config struct {
	// Timeout bounds each outbound HTTP call. Default: 10s.
	Timeout time.Duration

	// SummaryTopLimit bounds the top-content lists. Default: 5.
	SummaryTopLimit int
}

// Dispatcher delivers webhooks for domain events and the monthly summary.
//
// Delivery state machine per attempt: pending, then delivered or failed,
// both terminal. The engine never retries and never cancels an issued
// call; failure isolation is per webhook.
type Dispatcher struct {
	registry  Registry
	analytics Analytics
	client    *http.Client
	timeout   time.Duration
	topLimit  int
	now       func() time.Time
}

// NewDispatcher creates a dispatch engine.
func NewDispatcher(registry Registry, analytics Analytics, cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SummaryTopLimit <= 0 {
		cfg.SummaryTopLimit = 5
	}
	return &Dispatcher{
		registry:  registry,
		analytics: analytics,
		client:    &http.Client{Timeout: cfg.Timeout},
		timeout:   cfg.Timeout,
		topLimit:  cfg.SummaryTopLimit,
		now:       time.Now,
	}
}

// RegisterEventHandlers subscribes the engine to every known event name.
// Must run before the bus starts.
func (d *Dispatcher) RegisterEventHandlers(b *bus.Bus) {
	for _, name := range models.KnownEventNames() {
		b.Subscribe(name, func(ctx context.Context, event string, data map[string]any) error {
			return d.TriggerEventWebhooks(ctx, event, data)
		})
	}
}

// TriggerEventWebhooks resolves all enabled event webhooks for eventType,
// enriches the event data, and delivers every webhook concurrently. It
// returns after all launched deliveries have settled. The returned error
// is non-nil only when resolution failed; individual delivery failures are
// logged and counted, never surfaced to the publisher.
func (d *Dispatcher) TriggerEventWebhooks(ctx context.Context, eventType string, data map[string]any) error {
	webhooks, err := d.registry.ListEnabledWebhooks(ctx, models.TriggerEvent, eventType)
	if err != nil {
		return fmt.Errorf("resolve webhooks for %s: %w", eventType, err)
	}
	if len(webhooks) == 0 {
		logging.Debug().Str("event", eventType).Msg("No webhooks configured for event")
		return nil
	}

	enriched := make(map[string]any, len(data)+2)
	for k, v := range data {
		enriched[k] = v
	}
	enriched[models.EventDataKeyEvent] = eventType
	enriched[models.EventDataKeyTriggeredAt] = d.now().UTC().Format(time.RFC3339)

	// Launch every delivery before awaiting any: all-settled join, one
	// failure never blocks or cancels siblings.
	var wg sync.WaitGroup
	for i := range webhooks {
		wh := webhooks[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := d.executeWebhook(ctx, &wh, enriched)
			d.logResult(&wh, eventType, result)
		}()
	}
	wg.Wait()

	return nil
}

// executeWebhook delivers one webhook. It is the unit of failure
// isolation: every abnormal outcome is encoded in the result, never
// propagated as a panic or error to sibling deliveries.
func (d *Dispatcher) executeWebhook(ctx context.Context, wh *models.Webhook, data map[string]any) *DeliveryResult {
	path := metrics.PathGeneric
	if IsDiscordWebhook(wh.URL) {
		path = metrics.PathDiscord
	}

	if wh.ConfigError != "" {
		metrics.WebhookDeliveries.WithLabelValues(path, metrics.OutcomeFailed).Inc()
		return &DeliveryResult{
			Path:         path,
			ErrorCode:    ErrorCodeInvalidConfig,
			ErrorMessage: wh.ConfigError,
		}
	}

	// Discord path: raw payload, fixed content type, declared headers
	// ignored. Generic path: compile the template against the event data
	// and send with the webhook's declared headers.
	payload := wh.Payload
	headers := map[string]string(nil)
	if path == metrics.PathGeneric {
		payload = CompileTemplate(wh.Payload, data)
		headers = wh.Headers
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues(path, metrics.OutcomeFailed).Inc()
		return &DeliveryResult{
			Path:         path,
			ErrorCode:    ErrorCodeInvalidConfig,
			ErrorMessage: fmt.Sprintf("failed to marshal payload: %v", err),
		}
	}
	return d.send(ctx, wh, body, headers, path)
}

// send issues the HTTP call and records the delivery timestamp when the
// call completes with any status code. Transport errors and timeouts do
// not record a timestamp. The call is never canceled externally: the
// request context is detached from the caller and bounded only by the
// configured timeout.
func (d *Dispatcher) send(ctx context.Context, wh *models.Webhook, body []byte, headers map[string]string, path string) *DeliveryResult {
	method := strings.ToUpper(wh.Method)
	if method == "" {
		method = http.MethodPost
	}

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, wh.URL, bytes.NewReader(body))
	if err != nil {
		return &DeliveryResult{
			ErrorCode:    ErrorCodeInvalidConfig,
			ErrorMessage: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := d.now()
	resp, err := d.client.Do(req)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		code := classifyTransportError(err)
		metrics.WebhookDeliveries.WithLabelValues(path, metrics.OutcomeFailed).Inc()
		return &DeliveryResult{
			ErrorCode:    code,
			ErrorMessage: fmt.Sprintf("failed to send webhook: %v", err),
			Path:         path,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		respBody = []byte("(failed to read response)")
	}

	result := &DeliveryResult{
		Delivered:    true,
		ResponseCode: resp.StatusCode,
		Path:         path,
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.ErrorCode = classifyStatusCode(resp.StatusCode)
		result.ErrorMessage = fmt.Sprintf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	metrics.WebhookDeliveries.WithLabelValues(path, metrics.OutcomeDelivered).Inc()

	// The call completed, so the timestamp is recorded regardless of the
	// remote status. Bookkeeping failures never change the outcome.
	if err := d.registry.TouchLastTriggered(ctx, wh.ID); err != nil {
		logging.Warn().Err(err).Str("webhook_id", wh.ID).Msg("Failed to record delivery timestamp")
	}

	return result
}

// logResult emits the per-webhook delivery log line.
func (d *Dispatcher) logResult(wh *models.Webhook, eventType string, result *DeliveryResult) {
	switch {
	case !result.Delivered:
		logging.Error().
			Str("webhook_id", wh.ID).
			Str("webhook", wh.Name).
			Str("event", eventType).
			Str("error_code", result.ErrorCode).
			Str("error", result.ErrorMessage).
			Msg("Webhook delivery failed")
	case result.ErrorCode != "":
		logging.Warn().
			Str("webhook_id", wh.ID).
			Str("webhook", wh.Name).
			Str("event", eventType).
			Int("status", result.ResponseCode).
			Str("error", result.ErrorMessage).
			Msg("Webhook delivered with non-2xx status")
	default:
		logging.Info().
			Str("webhook_id", wh.ID).
			Str("webhook", wh.Name).
			Str("event", eventType).
			Int("status", result.ResponseCode).
			Msg("Webhook delivered")
	}
}
