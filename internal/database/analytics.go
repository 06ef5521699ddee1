// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/streamsignal/internal/models"
)

// TopContent returns the top entries of one content kind within a window,
// ranked by total watched minutes. Movies are grouped by title; series
// are grouped by show title (episodes roll up to their grandparent).
// Ties keep the query's natural order; no tie-break is imposed here.
func (db *DB) TopContent(ctx context.Context, kind models.ContentKind, start, end time.Time, limit int) ([]models.TopContentEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var query string
	switch kind {
	case models.ContentKindMovie:
		query = `
		SELECT
			title,
			COUNT(DISTINCT user_id) AS unique_viewers,
			COALESCE(SUM(play_duration), 0) / 60.0 AS total_minutes
		FROM playback_events
		WHERE media_type = 'movie' AND started_at >= ? AND started_at < ?
		GROUP BY title
		ORDER BY total_minutes DESC
		LIMIT ?`
	case models.ContentKindSeries:
		query = `
		SELECT
			COALESCE(grandparent_title, title) AS show_title,
			COUNT(DISTINCT user_id) AS unique_viewers,
			COALESCE(SUM(play_duration), 0) / 60.0 AS total_minutes
		FROM playback_events
		WHERE media_type = 'episode' AND started_at >= ? AND started_at < ?
		GROUP BY show_title
		ORDER BY total_minutes DESC
		LIMIT ?`
	default:
		return nil, fmt.Errorf("unknown content kind: %s", kind)
	}

	rows, err := db.conn.QueryContext(ctx, query, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top %s: %w", kind, err)
	}
	defer rows.Close()

	entries := []models.TopContentEntry{}
	for rows.Next() {
		var e models.TopContentEntry
		if err := rows.Scan(&e.Title, &e.UniqueViewers, &e.TotalMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan top content: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top content: %w", err)
	}

	return entries, nil
}

// AggregateStats returns the single aggregate-statistics row for a window.
func (db *DB) AggregateStats(ctx context.Context, start, end time.Time) (*models.WatchStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT user_id) AS active_users,
			COUNT(*) AS total_plays,
			COALESCE(SUM(play_duration), 0) / 3600.0 AS total_hours
		FROM playback_events
		WHERE started_at >= ? AND started_at < ?`, start, end)

	var stats models.WatchStats
	if err := row.Scan(&stats.ActiveUsers, &stats.TotalPlays, &stats.TotalHours); err != nil {
		return nil, fmt.Errorf("failed to query aggregate stats: %w", err)
	}
	return &stats, nil
}
