// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/streamsignal/internal/database"
	"github.com/tomtom215/streamsignal/internal/dispatch"
	"github.com/tomtom215/streamsignal/internal/models"
)

type fakeStore struct {
	webhooks map[string]*models.Webhook
	playback []*models.PlaybackRecord
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{webhooks: make(map[string]*models.Webhook)}
}

func (f *fakeStore) ListWebhooks(context.Context) ([]models.Webhook, error) {
	out := []models.Webhook{}
	for _, wh := range f.webhooks {
		out = append(out, *wh)
	}
	return out, nil
}

func (f *fakeStore) GetWebhook(_ context.Context, id string) (*models.Webhook, error) {
	wh, ok := f.webhooks[id]
	if !ok {
		return nil, database.ErrWebhookNotFound
	}
	return wh, nil
}

func (f *fakeStore) CreateWebhook(_ context.Context, req *models.WebhookRequest) (*models.Webhook, error) {
	id := fmt.Sprintf("wh-%d", len(f.webhooks)+1)
	wh := &models.Webhook{
		ID:          id,
		Name:        req.Name,
		URL:         req.URL,
		Method:      req.Method,
		Headers:     req.Headers,
		Payload:     req.Payload,
		TriggerType: req.TriggerType,
		EventType:   req.EventType,
		Enabled:     req.Enabled == nil || *req.Enabled,
		CreatedAt:   time.Now(),
	}
	f.webhooks[id] = wh
	return wh, nil
}

func (f *fakeStore) UpdateWebhook(_ context.Context, id string, req *models.WebhookRequest) (*models.Webhook, error) {
	wh, ok := f.webhooks[id]
	if !ok {
		return nil, database.ErrWebhookNotFound
	}
	wh.Name = req.Name
	wh.URL = req.URL
	return wh, nil
}

func (f *fakeStore) DeleteWebhook(_ context.Context, id string) error {
	if _, ok := f.webhooks[id]; !ok {
		return database.ErrWebhookNotFound
	}
	delete(f.webhooks, id)
	return nil
}

func (f *fakeStore) InsertPlaybackRecord(_ context.Context, rec *models.PlaybackRecord) error {
	f.playback = append(f.playback, rec)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakePublisher struct {
	events []string
	data   []map[string]any
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event string, data map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.data = append(f.data, data)
	return nil
}

type fakeSummaryDispatcher struct {
	triggerErr  error
	triggeredID string
	summary     *models.MonthlySummary
	buildErr    error
}

func (f *fakeSummaryDispatcher) TriggerSummaryWebhook(_ context.Context, id string) error {
	f.triggeredID = id
	return f.triggerErr
}

func (f *fakeSummaryDispatcher) BuildMonthlySummary(context.Context) (*models.MonthlySummary, error) {
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return f.summary, nil
}

type testEnv struct {
	store      *fakeStore
	publisher  *fakePublisher
	dispatcher *fakeSummaryDispatcher
	srv        http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:      newFakeStore(),
		publisher:  &fakePublisher{},
		dispatcher: &fakeSummaryDispatcher{},
	}
	handler := NewHandler(env.store, env.publisher, env.dispatcher, "test")
	env.srv = NewRouter(handler, RouterConfig{
		CORSOrigins:   []string{"*"},
		RateLimitReqs: 10000,
	}).Setup()
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return &resp
}

func validWebhookRequest() map[string]any {
	return map[string]any{
		"name":         "test hook",
		"url":          "https://example.com/hook",
		"trigger_type": "event",
		"event_type":   "playback_started",
		"payload":      map[string]any{"text": "{{event}}"},
	}
}

func TestCreateWebhook(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/webhooks", validWebhookRequest())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if len(env.store.webhooks) != 1 {
		t.Errorf("stored webhooks = %d, want 1", len(env.store.webhooks))
	}
}

func TestCreateWebhook_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(m map[string]any) { delete(m, "name") }},
		{"missing url", func(m map[string]any) { delete(m, "url") }},
		{"invalid url", func(m map[string]any) { m["url"] = "not a url" }},
		{"bad trigger type", func(m map[string]any) { m["trigger_type"] = "cron" }},
		{"event trigger without event type", func(m map[string]any) { delete(m, "event_type") }},
		{"bad method", func(m map[string]any) { m["method"] = "SEND" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			body := validWebhookRequest()
			tt.mutate(body)

			rec := env.do(t, http.MethodPost, "/api/v1/webhooks", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			resp := decodeResponse(t, rec)
			if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %#v, want VALIDATION_ERROR", resp.Error)
			}
		})
	}
}

func TestWebhookCRUDRoundTrip(t *testing.T) {
	env := newTestEnv()

	created := env.do(t, http.MethodPost, "/api/v1/webhooks", validWebhookRequest())
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d", created.Code)
	}
	resp := decodeResponse(t, created)
	data, _ := resp.Data.(map[string]any)
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatalf("created webhook has no id: %#v", resp.Data)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/webhooks/"+id, nil); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/webhooks", nil); rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}

	update := validWebhookRequest()
	update["name"] = "renamed"
	if rec := env.do(t, http.MethodPut, "/api/v1/webhooks/"+id, update); rec.Code != http.StatusOK {
		t.Errorf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if env.store.webhooks[id].Name != "renamed" {
		t.Errorf("name after update = %q", env.store.webhooks[id].Name)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/webhooks/"+id, nil); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/webhooks/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestGetWebhook_NotFound(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/webhooks/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %#v", resp.Error)
	}
}

func TestIngestEvent_PublishesToBus(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]any{
		"event": "playback_started",
		"data":  map[string]any{"user": "alice"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	if len(env.publisher.events) != 1 || env.publisher.events[0] != "playback_started" {
		t.Errorf("published events = %v", env.publisher.events)
	}
	if env.publisher.data[0]["user"] != "alice" {
		t.Errorf("published data = %#v", env.publisher.data[0])
	}
	if len(env.store.playback) != 0 {
		t.Errorf("playback rows = %d, want 0 for non-ended event", len(env.store.playback))
	}
}

func TestIngestEvent_PlaybackEndedRecordsAnalyticsRow(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]any{
		"event": "playback_ended",
		"data": map[string]any{
			"user_id":       float64(7),
			"username":      "alice",
			"media_type":    "movie",
			"title":         "Heat",
			"play_duration": float64(7200),
		},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if len(env.store.playback) != 1 {
		t.Fatalf("playback rows = %d, want 1", len(env.store.playback))
	}
	row := env.store.playback[0]
	if row.UserID != 7 || row.Username != "alice" || row.Title != "Heat" || row.PlayDuration != 7200 {
		t.Errorf("playback row = %#v", row)
	}
	if row.ID == "" {
		t.Error("playback row missing id")
	}
}

func TestIngestEvent_MissingEventName(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/events", map[string]any{
		"data": map[string]any{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTriggerSummary(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/webhooks/wh-1/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if env.dispatcher.triggeredID != "wh-1" {
		t.Errorf("triggered id = %q", env.dispatcher.triggeredID)
	}
}

func TestTriggerSummary_NotFound(t *testing.T) {
	env := newTestEnv()
	env.dispatcher.triggerErr = dispatch.ErrSummaryWebhookNotFound

	rec := env.do(t, http.MethodPost, "/api/v1/webhooks/missing/summary", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTriggerSummary_DeliveryFailure(t *testing.T) {
	env := newTestEnv()
	env.dispatcher.triggerErr = errors.New("connection refused")

	rec := env.do(t, http.MethodPost, "/api/v1/webhooks/wh-1/summary", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != "DISPATCH_ERROR" {
		t.Errorf("error = %#v", resp.Error)
	}
}

func TestStatsSummary(t *testing.T) {
	env := newTestEnv()
	env.dispatcher.summary = &models.MonthlySummary{
		Period: models.SummaryPeriod{Label: "July 2026"},
		Stats:  models.WatchStats{TotalPlays: 3},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/stats/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "July 2026") {
		t.Errorf("body missing period label: %s", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	env.store.pingErr = errors.New("db closed")
	rec = env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", rec.Code)
	}
}
