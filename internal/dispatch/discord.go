// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package dispatch

import "strings"

// Discord webhook URL markers. A destination URL containing either marker
// takes the Discord delivery path: the raw payload is sent verbatim with a
// fixed JSON content type and webhook-declared headers are ignored. This
// substring match is the sole discriminator between the two paths.
var discordMarkers = []string{
	"discord.com/api/webhooks",
	"discordapp.com/api/webhooks",
}

// IsDiscordWebhook reports whether a destination URL is a Discord webhook.
func IsDiscordWebhook(url string) bool {
	for _, marker := range discordMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// DiscordWebhookPayload is the Discord webhook message structure.
type DiscordWebhookPayload struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Content   string         `json:"content,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed is a Discord embed object.
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
}

// DiscordEmbedFooter is the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

// DiscordEmbedField is one field in a Discord embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// discordBlurple is the embed accent color used for summary digests.
const discordBlurple = 0x5865F2
