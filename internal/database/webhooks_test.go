// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tomtom215/streamsignal/internal/models"
)

// newMockDB builds a DB over a sqlmock connection. The real driver is
// DuckDB; these tests cover the query and scan plumbing, not dialect
// behavior.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn}, mock
}

var webhookColumnNames = []string{
	"id", "name", "url", "method", "headers", "payload",
	"trigger_type", "event_type", "enabled", "last_triggered",
	"created_at", "updated_at",
}

func TestListEnabledWebhooks_EventTrigger(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now()
	rows := sqlmock.NewRows(webhookColumnNames).
		AddRow("wh-1", "hook one", "https://example.com/a", "POST",
			`{"X-Token":"abc"}`, `{"text":"{{event}}"}`,
			"event", "playback_started", true, nil, now, now).
		AddRow("wh-2", "hook two", "https://discord.com/api/webhooks/1/t", "POST",
			`{}`, `{"content":"hi"}`,
			"event", "playback_started", true, now, now, now)

	mock.ExpectQuery("SELECT (.+) FROM webhooks WHERE enabled = true AND trigger_type = (.+) AND event_type = (.+)").
		WithArgs("event", "playback_started").
		WillReturnRows(rows)

	webhooks, err := db.ListEnabledWebhooks(context.Background(), models.TriggerEvent, "playback_started")
	if err != nil {
		t.Fatalf("ListEnabledWebhooks: %v", err)
	}
	if len(webhooks) != 2 {
		t.Fatalf("got %d webhooks, want 2", len(webhooks))
	}

	first := webhooks[0]
	if first.Headers["X-Token"] != "abc" {
		t.Errorf("headers not parsed: %#v", first.Headers)
	}
	payload, ok := first.Payload.(map[string]any)
	if !ok || payload["text"] != "{{event}}" {
		t.Errorf("payload not parsed: %#v", first.Payload)
	}
	if first.ConfigError != "" {
		t.Errorf("unexpected config error: %q", first.ConfigError)
	}
	if first.LastTriggered != nil {
		t.Error("LastTriggered should be nil for never-fired webhook")
	}
	if webhooks[1].LastTriggered == nil {
		t.Error("LastTriggered missing on second webhook")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListEnabledWebhooks_ScheduledTriggerOmitsEventFilter(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(webhookColumnNames)
	mock.ExpectQuery("SELECT (.+) FROM webhooks WHERE enabled = true AND trigger_type = (.+) ORDER BY created_at").
		WithArgs("scheduled").
		WillReturnRows(rows)

	webhooks, err := db.ListEnabledWebhooks(context.Background(), models.TriggerScheduled, "")
	if err != nil {
		t.Fatalf("ListEnabledWebhooks: %v", err)
	}
	if len(webhooks) != 0 {
		t.Errorf("got %d webhooks, want 0", len(webhooks))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestScanWebhook_MalformedColumnsSetConfigError(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now()
	rows := sqlmock.NewRows(webhookColumnNames).
		AddRow("wh-bad", "broken", "https://example.com/b", "POST",
			`{not json`, `{"ok":true}`,
			"event", "playback_started", true, nil, now, now).
		AddRow("wh-ok", "fine", "https://example.com/c", "POST",
			`{}`, `{"ok":true}`,
			"event", "playback_started", true, nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM webhooks").
		WithArgs("event", "playback_started").
		WillReturnRows(rows)

	webhooks, err := db.ListEnabledWebhooks(context.Background(), models.TriggerEvent, "playback_started")
	if err != nil {
		t.Fatalf("ListEnabledWebhooks: %v", err)
	}
	if len(webhooks) != 2 {
		t.Fatalf("got %d webhooks, want 2: a parse failure must not drop the sibling row", len(webhooks))
	}
	if webhooks[0].ConfigError == "" {
		t.Error("malformed headers did not set ConfigError")
	}
	if webhooks[1].ConfigError != "" {
		t.Errorf("healthy sibling got config error: %q", webhooks[1].ConfigError)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetEnabledWebhookByID_AbsentIsNilNil(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM webhooks WHERE id = (.+) AND enabled = true").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(webhookColumnNames))

	wh, err := db.GetEnabledWebhookByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetEnabledWebhookByID: %v", err)
	}
	if wh != nil {
		t.Errorf("got %#v, want nil for unknown or disabled webhook", wh)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTouchLastTriggered(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE webhooks SET last_triggered = current_timestamp WHERE id = ?").
		WithArgs("wh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := db.TouchLastTriggered(context.Background(), "wh-1"); err != nil {
		t.Fatalf("TouchLastTriggered: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateWebhook_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("UPDATE webhooks SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := &models.WebhookRequest{
		Name:        "renamed",
		URL:         "https://example.com/hook",
		TriggerType: models.TriggerEvent,
		EventType:   "playback_started",
	}
	_, err := db.UpdateWebhook(context.Background(), "missing", req)
	if !errors.Is(err, ErrWebhookNotFound) {
		t.Fatalf("error = %v, want ErrWebhookNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDeleteWebhook_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM webhooks WHERE id = ?").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := db.DeleteWebhook(context.Background(), "missing"); !errors.Is(err, ErrWebhookNotFound) {
		t.Fatalf("error = %v, want ErrWebhookNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
