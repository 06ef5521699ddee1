// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/streamsignal/internal/models"
)

// InsertPlaybackRecord stores one completed playback session for the
// analytics queries. Records with a missing id get one assigned.
func (db *DB) InsertPlaybackRecord(ctx context.Context, rec *models.PlaybackRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO playback_events (id, user_id, username, media_type, title, grandparent_title, started_at, stopped_at, play_duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Username, rec.MediaType, rec.Title,
		nullIfEmpty(rec.GrandparentTitle), rec.StartedAt, rec.StoppedAt, rec.PlayDuration)
	if err != nil {
		return fmt.Errorf("failed to insert playback record: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
