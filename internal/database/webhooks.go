// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/streamsignal/internal/logging"
	"github.com/tomtom215/streamsignal/internal/models"
)

// ErrWebhookNotFound is returned by CRUD lookups for unknown webhook ids.
// The dispatch-facing lookups (GetEnabledWebhookByID) do NOT return it:
// there, "absent" and "disabled" are deliberately indistinguishable.
var ErrWebhookNotFound = errors.New("webhook not found")

const webhookColumns = `id, name, url, method, headers, payload, trigger_type, event_type, enabled, last_triggered, created_at, updated_at`

// scanWebhook reads one webhook row and parses the headers/payload JSON
// columns into their typed fields. A parse failure does not fail the scan;
// it is recorded on the returned record so the dispatch engine can fail
// that one webhook without affecting siblings resolved in the same query.
func scanWebhook(rows interface{ Scan(...any) error }) (models.Webhook, error) {
	var (
		wh            models.Webhook
		method        sql.NullString
		headersJSON   sql.NullString
		payloadJSON   sql.NullString
		eventType     sql.NullString
		lastTriggered sql.NullTime
	)

	err := rows.Scan(
		&wh.ID, &wh.Name, &wh.URL, &method, &headersJSON, &payloadJSON,
		&wh.TriggerType, &eventType, &wh.Enabled, &lastTriggered,
		&wh.CreatedAt, &wh.UpdatedAt,
	)
	if err != nil {
		return wh, err
	}

	if method.Valid {
		wh.Method = method.String
	}
	if eventType.Valid {
		wh.EventType = eventType.String
	}
	if lastTriggered.Valid {
		t := lastTriggered.Time
		wh.LastTriggered = &t
	}

	wh.Headers = map[string]string{}
	if headersJSON.Valid && headersJSON.String != "" {
		if err := json.Unmarshal([]byte(headersJSON.String), &wh.Headers); err != nil {
			wh.ConfigError = fmt.Sprintf("malformed headers JSON: %v", err)
		}
	}
	if payloadJSON.Valid && payloadJSON.String != "" {
		if err := json.Unmarshal([]byte(payloadJSON.String), &wh.Payload); err != nil {
			wh.ConfigError = fmt.Sprintf("malformed payload JSON: %v", err)
		}
	}

	return wh, nil
}

// ListEnabledWebhooks returns all enabled webhooks matching the trigger
// type and, for event triggers, the event name. An empty result is valid.
func (db *DB) ListEnabledWebhooks(ctx context.Context, trigger models.TriggerType, eventType string) ([]models.Webhook, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE enabled = true AND trigger_type = ?`
	args := []any{string(trigger)}
	if trigger == models.TriggerEvent {
		query += ` AND event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY created_at`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := []models.Webhook{}
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, wh)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhooks: %w", err)
	}

	return webhooks, nil
}

// GetEnabledWebhookByID returns one enabled webhook, or (nil, nil) when
// the id is unknown or the webhook is disabled.
func (db *DB) GetEnabledWebhookByID(ctx context.Context, id string) (*models.Webhook, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE id = ? AND enabled = true`, id)

	wh, err := scanWebhook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook %s: %w", id, err)
	}
	return &wh, nil
}

// TouchLastTriggered records a delivery timestamp for a webhook.
// Best-effort: callers log and swallow the error per the bookkeeping
// contract, but the write failure is still surfaced for them to log.
func (db *DB) TouchLastTriggered(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE webhooks SET last_triggered = current_timestamp WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to touch webhook %s: %w", id, err)
	}
	return nil
}

// ListWebhooks returns all webhooks regardless of enabled state,
// for the admin CRUD surface.
func (db *DB) ListWebhooks(ctx context.Context) ([]models.Webhook, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := []models.Webhook{}
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		webhooks = append(webhooks, wh)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhooks: %w", err)
	}

	return webhooks, nil
}

// GetWebhook returns one webhook by id regardless of enabled state.
// Returns ErrWebhookNotFound for unknown ids.
func (db *DB) GetWebhook(ctx context.Context, id string) (*models.Webhook, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`, id)

	wh, err := scanWebhook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWebhookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook %s: %w", id, err)
	}
	return &wh, nil
}

// CreateWebhook inserts a new webhook and returns the stored record.
func (db *DB) CreateWebhook(ctx context.Context, req *models.WebhookRequest) (*models.Webhook, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	headersJSON, payloadJSON, err := encodeWebhookColumns(req)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	method := req.Method
	if method == "" {
		method = "POST"
	}
	now := time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO webhooks (id, name, url, method, headers, payload, trigger_type, event_type, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, req.Name, req.URL, method, headersJSON, payloadJSON,
		string(req.TriggerType), req.EventType, enabled, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}

	logging.Info().Str("webhook_id", id).Str("name", req.Name).Msg("Webhook created")
	return db.GetWebhook(ctx, id)
}

// UpdateWebhook replaces a webhook's configuration.
func (db *DB) UpdateWebhook(ctx context.Context, id string, req *models.WebhookRequest) (*models.Webhook, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	headersJSON, payloadJSON, err := encodeWebhookColumns(req)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	method := req.Method
	if method == "" {
		method = "POST"
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE webhooks SET name = ?, url = ?, method = ?, headers = ?, payload = ?,
			trigger_type = ?, event_type = ?, enabled = ?, updated_at = current_timestamp
		 WHERE id = ?`,
		req.Name, req.URL, method, headersJSON, payloadJSON,
		string(req.TriggerType), req.EventType, enabled, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update webhook %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrWebhookNotFound
	}

	return db.GetWebhook(ctx, id)
}

// DeleteWebhook removes a webhook. Returns ErrWebhookNotFound for
// unknown ids.
func (db *DB) DeleteWebhook(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWebhookNotFound
	}
	return nil
}

// encodeWebhookColumns serializes the request's structured headers and
// payload into their JSON column form.
func encodeWebhookColumns(req *models.WebhookRequest) (string, string, error) {
	headers := req.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode headers: %w", err)
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode payload: %w", err)
	}

	return string(headersJSON), string(payloadJSON), nil
}
