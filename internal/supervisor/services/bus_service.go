// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package services

import (
	"context"
	"fmt"
)

// BusRunner matches the event bus's blocking run loop.
type BusRunner interface {
	Run(ctx context.Context) error
}

// BusService runs the event bus router under supervision. A router crash
// restarts only the messaging layer; in-flight HTTP requests are
// unaffected.
type BusService struct {
	bus BusRunner
}

// NewBusService wraps the event bus as a supervised service.
func NewBusService(bus BusRunner) *BusService {
	return &BusService{bus: bus}
}

// Serve implements suture.Service.
func (s *BusService) Serve(ctx context.Context) error {
	if err := s.bus.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("event bus stopped: %w", err)
	}
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *BusService) String() string {
	return "event-bus"
}
