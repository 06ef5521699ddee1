// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package models

import "time"

// Domain event names. The vocabulary is open for extension: publishing an
// unknown name is legal and simply reaches no subscribers.
const (
	// EventPlaybackStarted fires when a playback session begins.
	EventPlaybackStarted = "playback_started"
	// EventPlaybackEnded fires when a playback session finishes.
	EventPlaybackEnded = "playback_ended"
	// EventMediaAdded fires when new media appears in a library.
	EventMediaAdded = "media_recently_added"
)

// KnownEventNames lists the event names the dispatch engine subscribes to.
func KnownEventNames() []string {
	return []string{EventPlaybackStarted, EventPlaybackEnded, EventMediaAdded}
}

// Synthetic keys merged into event data before template resolution.
const (
	// EventDataKeyEvent carries the event name.
	EventDataKeyEvent = "event"
	// EventDataKeyTriggeredAt carries the dispatch timestamp (RFC 3339).
	EventDataKeyTriggeredAt = "triggeredAt"
)

// IngestEvent is the wire shape accepted by the event ingest endpoint:
// a named event with an arbitrary-depth data tree.
type IngestEvent struct {
	Event string         `json:"event" validate:"required,max=128"`
	Data  map[string]any `json:"data"`
}

// PlaybackRecord is the analytics row derived from playback events.
// It carries the subset of session fields the monthly summary queries need.
type PlaybackRecord struct {
	ID               string     `json:"id"`
	UserID           int        `json:"user_id"`
	Username         string     `json:"username"`
	MediaType        string     `json:"media_type"`
	Title            string     `json:"title"`
	GrandparentTitle string     `json:"grandparent_title,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	StoppedAt        *time.Time `json:"stopped_at,omitempty"`
	PlayDuration     int        `json:"play_duration"` // seconds
}

// MediaType constants matching the analytics store schema.
const (
	// MediaTypeMovie indicates a movie.
	MediaTypeMovie = "movie"
	// MediaTypeEpisode indicates a TV episode.
	MediaTypeEpisode = "episode"
)
