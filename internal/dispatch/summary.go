// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package dispatch

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/streamsignal/internal/logging"
	"github.com/tomtom215/streamsignal/internal/metrics"
	"github.com/tomtom215/streamsignal/internal/models"
)

// ErrSummaryWebhookNotFound is returned when the summary target webhook
// is unknown or disabled; the two cases are indistinguishable by design.
var ErrSummaryWebhookNotFound = fmt.Errorf("summary webhook not found or disabled")

// emptySectionPlaceholder is rendered when a top-content list has no rows.
const emptySectionPlaceholder = "No plays recorded this period"

// previousMonthWindow computes the previous calendar month boundaries
// relative to now: [first of previous month, first of current month).
func previousMonthWindow(now time.Time) (start, end time.Time, label string) {
	year, month, _ := now.UTC().Date()
	end = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, -1, 0)
	return start, end, start.Format("January 2006")
}

// BuildMonthlySummary queries the analytics store for the previous
// calendar month and assembles the digest. Built fresh on every call,
// never cached.
func (d *Dispatcher) BuildMonthlySummary(ctx context.Context) (*models.MonthlySummary, error) {
	start, end, label := previousMonthWindow(d.now())

	topMovies, err := d.analytics.TopContent(ctx, models.ContentKindMovie, start, end, d.topLimit)
	if err != nil {
		metrics.SummaryBuilds.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("query top movies: %w", err)
	}
	topSeries, err := d.analytics.TopContent(ctx, models.ContentKindSeries, start, end, d.topLimit)
	if err != nil {
		metrics.SummaryBuilds.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("query top series: %w", err)
	}
	stats, err := d.analytics.AggregateStats(ctx, start, end)
	if err != nil {
		metrics.SummaryBuilds.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("query aggregate stats: %w", err)
	}

	metrics.SummaryBuilds.WithLabelValues(metrics.OutcomeDelivered).Inc()
	return &models.MonthlySummary{
		Period:    models.SummaryPeriod{Start: start, End: end, Label: label},
		TopMovies: topMovies,
		TopSeries: topSeries,
		Stats:     *stats,
	}, nil
}

// TriggerSummaryWebhook builds the monthly digest and delivers it to one
// specific webhook through the Discord-path HTTP contract. The webhook id
// is supplied by the external scheduler; this entry point does not go
// through the event bus.
func (d *Dispatcher) TriggerSummaryWebhook(ctx context.Context, webhookID string) error {
	wh, err := d.registry.GetEnabledWebhookByID(ctx, webhookID)
	if err != nil {
		return fmt.Errorf("resolve summary webhook %s: %w", webhookID, err)
	}
	if wh == nil {
		return ErrSummaryWebhookNotFound
	}

	// Digest failures are isolated from delivery: nothing is sent unless
	// the full digest was built.
	summary, err := d.BuildMonthlySummary(ctx)
	if err != nil {
		return fmt.Errorf("build monthly summary: %w", err)
	}

	payload := renderSummaryPayload(summary)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal summary payload: %w", err)
	}

	result := d.send(ctx, wh, body, nil, metrics.PathDiscord)
	if !result.Delivered {
		return fmt.Errorf("deliver summary to %s: %s (%s)", wh.Name, result.ErrorMessage, result.ErrorCode)
	}
	if result.ErrorCode != "" {
		logging.Warn().
			Str("webhook_id", wh.ID).
			Int("status", result.ResponseCode).
			Str("error", result.ErrorMessage).
			Msg("Summary delivered with non-2xx status")
	} else {
		logging.Info().
			Str("webhook_id", wh.ID).
			Str("period", summary.Period.Label).
			Msg("Monthly summary delivered")
	}
	return nil
}

// renderSummaryPayload shapes the digest as a Discord embed: a title line
// with the period label, one field per top-content list, and one
// statistics field. Empty lists render a single placeholder entry rather
// than dropping the section.
func renderSummaryPayload(s *models.MonthlySummary) DiscordWebhookPayload {
	embed := DiscordEmbed{
		Title:     fmt.Sprintf("Monthly Watch Summary - %s", s.Period.Label),
		Color:     discordBlurple,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []DiscordEmbedField{
			{Name: "🎬 Top Movies", Value: renderTopList(s.TopMovies)},
			{Name: "📺 Top Series", Value: renderTopList(s.TopSeries)},
			{Name: "📈 Statistics", Value: renderStats(s.Stats)},
		},
		Footer: &DiscordEmbedFooter{Text: "StreamSignal"},
	}

	return DiscordWebhookPayload{
		Username: "StreamSignal",
		Embeds:   []DiscordEmbed{embed},
	}
}

// renderTopList formats one ranked content list, one entry per rank.
func renderTopList(entries []models.TopContentEntry) string {
	if len(entries) == 0 {
		return emptySectionPlaceholder
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**%d. %s**\n%d minutes • %d viewers",
			i+1, e.Title, int(math.Round(e.TotalMinutes)), e.UniqueViewers)
	}
	return b.String()
}

// renderStats formats the aggregate statistics section. Hours are rounded
// to the nearest integer.
func renderStats(stats models.WatchStats) string {
	return fmt.Sprintf("Active users: %d\nTotal plays: %d\nTotal hours: %d",
		stats.ActiveUsers, stats.TotalPlays, int(math.Round(stats.TotalHours)))
}
