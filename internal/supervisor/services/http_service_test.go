// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// mockServer implements HTTPServer with controllable behavior.
type mockServer struct {
	listenErr  error
	shutdownCh chan struct{}
	shutdown   bool
}

func newMockServer() *mockServer {
	return &mockServer{shutdownCh: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.shutdownCh
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(context.Context) error {
	m.shutdown = true
	close(m.shutdownCh)
	return nil
}

func TestHTTPService_GracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Let the listen goroutine start, then request shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return within 5s")
	}

	if !server.shutdown {
		t.Error("Shutdown was not called")
	}
}

func TestHTTPService_ListenFailure(t *testing.T) {
	server := newMockServer()
	server.listenErr = errors.New("address already in use")
	svc := NewHTTPService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("Serve error = %v, want wrapped listen error", err)
	}
}

func TestHTTPService_String(t *testing.T) {
	if got := NewHTTPService(newMockServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}

// mockBus implements BusRunner.
type mockBus struct {
	runErr error
}

func (m *mockBus) Run(ctx context.Context) error {
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return nil
}

func TestBusService_StopsWithContext(t *testing.T) {
	svc := NewBusService(&mockBus{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return within 5s")
	}
}

func TestBusService_CrashSurfacesError(t *testing.T) {
	svc := NewBusService(&mockBus{runErr: errors.New("router panic")})

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected error from crashed bus")
	}
}

func TestBusService_String(t *testing.T) {
	if got := NewBusService(&mockBus{}).String(); got != "event-bus" {
		t.Errorf("String() = %q", got)
	}
}
