// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package models

import "time"

// ContentKind selects the content classification for top-content queries.
type ContentKind string

const (
	// ContentKindMovie ranks movies by watched minutes.
	ContentKindMovie ContentKind = "movie"
	// ContentKindSeries ranks series (grouped by show) by watched minutes.
	ContentKindSeries ContentKind = "series"
)

// TopContentEntry is one ranked row of the top-content query.
type TopContentEntry struct {
	Title         string  `json:"title"`
	UniqueViewers int     `json:"unique_viewers"`
	TotalMinutes  float64 `json:"total_minutes"`
}

// WatchStats is the single aggregate-statistics row for a window.
type WatchStats struct {
	ActiveUsers int     `json:"active_users"`
	TotalPlays  int     `json:"total_plays"`
	TotalHours  float64 `json:"total_hours"`
}

// SummaryPeriod describes the digest window.
type SummaryPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// MonthlySummary is the derived analytics digest. It is built fresh on
// each invocation and never persisted or cached.
type MonthlySummary struct {
	Period    SummaryPeriod     `json:"period"`
	TopMovies []TopContentEntry `json:"top_movies"`
	TopSeries []TopContentEntry `json:"top_series"`
	Stats     WatchStats        `json:"stats"`
}
