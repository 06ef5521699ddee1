// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

// Package bus provides the in-process event bus that decouples event
// producers from the webhook dispatch engine.
//
// The bus is built on Watermill's GoChannel Pub/Sub and message Router.
// Exactly one Bus is constructed at process start and passed to every
// producer and to the dispatch engine; there is no hidden global
// instance. Publish hands the event to subscriber channels and returns
// without waiting for handlers, so producers never block on webhook
// delivery.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/streamsignal/internal/logging"
	"github.com/tomtom215/streamsignal/internal/metrics"
)

// topicPrefix namespaces event topics on the pub/sub.
const topicPrefix = "events."

// metadataEventKey carries the event name in message metadata.
const metadataEventKey = "event"

// HandlerFunc processes one published event. Returning an error logs the
// failure; the message is acknowledged either way — the bus never retries,
// failures are handled at the subscriber's own granularity.
type HandlerFunc func(ctx context.Context, event string, data map[string]any) error

// Config holds bus tuning parameters.
type Config struct {
	// OutputChannelBuffer is the per-subscriber channel depth. Publish
	// blocks only when a subscriber falls this far behind.
	OutputChannelBuffer int64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{OutputChannelBuffer: 256}
}

// Bus is the process-wide publish/subscribe channel for named domain
// events. Subscribe before Run; Publish any time after construction.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu       sync.Mutex
	handlers map[string]int // topic -> handler count, for unique names
}

// New creates a Bus with its own GoChannel pub/sub and router.
func New(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = NewWatermillLogger(logging.Logger())
	}
	if cfg.OutputChannelBuffer <= 0 {
		cfg.OutputChannelBuffer = DefaultConfig().OutputChannelBuffer
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputChannelBuffer,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	return &Bus{
		pubsub:   pubsub,
		router:   router,
		logger:   logger,
		handlers: make(map[string]int),
	}, nil
}

// Publish fires an event to all subscribers of its name. It returns once
// the message is buffered for delivery; handler execution is asynchronous.
// Unknown event names have no subscribers and are silently dropped.
func (b *Bus) Publish(ctx context.Context, event string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event, err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set(metadataEventKey, event)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topicPrefix+event, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event, err)
	}

	metrics.EventsPublished.WithLabelValues(event).Inc()
	return nil
}

// Subscribe registers a handler for one event name. Multiple handlers per
// name may coexist. Must be called before Run.
func (b *Bus) Subscribe(event string, handler HandlerFunc) {
	topic := topicPrefix + event

	b.mu.Lock()
	b.handlers[topic]++
	name := fmt.Sprintf("%s.handler-%d", topic, b.handlers[topic])
	b.mu.Unlock()

	b.router.AddNoPublisherHandler(name, topic, b.pubsub, func(msg *message.Message) error {
		var data map[string]any
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			logging.Error().Err(err).Str("event", event).Msg("Dropping undecodable event payload")
			return nil
		}
		if err := handler(msg.Context(), event, data); err != nil {
			logging.Error().Err(err).Str("event", event).Msg("Event handler failed")
		}
		// Always ack: the bus does not retry, failures stay with the handler.
		return nil
	})
}

// Run starts the router and blocks until the context is canceled or the
// router stops. All Subscribe calls must happen before Run.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running returns a channel closed once the router is running and all
// handlers are subscribed. Publishes before this point may be dropped.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Close shuts down the router and the pub/sub.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return b.pubsub.Close()
}
