// Package messaging announces published posts on chat webhooks.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"autoblog/internal/clients"
	"autoblog/internal/core"
	"autoblog/internal/logger"
)

// MessagePlatform represents different messaging platforms
type MessagePlatform string

const (
	PlatformSlack   MessagePlatform = "slack"
	PlatformDiscord MessagePlatform = "discord"
)

// ErrNotConfigured is returned when a platform has no webhook URL.
var ErrNotConfigured = errors.New("webhook URL not configured")

// SlackMessage represents a Slack message structure
type SlackMessage struct {
	Text     string       `json:"text,omitempty"`
	Blocks   []SlackBlock `json:"blocks,omitempty"`
	Username string       `json:"username,omitempty"`
}

// SlackBlock represents a Slack block kit element
type SlackBlock struct {
	Type string     `json:"type"`
	Text *SlackText `json:"text,omitempty"`
}

// SlackText represents text in Slack blocks
type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DiscordMessage represents a Discord webhook message
type DiscordMessage struct {
	Content  string         `json:"content,omitempty"`
	Username string         `json:"username,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents a Discord embed
type DiscordEmbed struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Color     int    `json:"color,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// WebhookSharer posts announcements to Slack and Discord incoming webhooks.
type WebhookSharer struct {
	SlackWebhookURL   string
	DiscordWebhookURL string
	Username          string

	http *clients.HTTP
	now  func() time.Time
}

// NewWebhookSharer creates a sharer. Empty URLs disable that platform.
func NewWebhookSharer(slackURL, discordURL, username string, httpClient *clients.HTTP) *WebhookSharer {
	if httpClient == nil {
		httpClient = clients.NewHTTP(nil, clients.DefaultRetryConfig())
	}
	return &WebhookSharer{
		SlackWebhookURL:   slackURL,
		DiscordWebhookURL: discordURL,
		Username:          username,
		http:              httpClient,
		now:               time.Now,
	}
}

// BuildSlackMessage formats an announcement for Slack.
func BuildSlackMessage(message, link, username string) *SlackMessage {
	text := message
	if link != "" {
		text = fmt.Sprintf("%s\n<%s>", message, link)
	}
	return &SlackMessage{
		Text:     text,
		Username: username,
		Blocks: []SlackBlock{{
			Type: "section",
			Text: &SlackText{Type: "mrkdwn", Text: text},
		}},
	}
}

// BuildDiscordMessage formats an announcement for Discord.
func BuildDiscordMessage(message, link, username string, now time.Time) *DiscordMessage {
	msg := &DiscordMessage{Content: message, Username: username}
	if link != "" {
		msg.Embeds = []DiscordEmbed{{
			Title:     strings.TrimSuffix(message, " - Check it out!"),
			URL:       link,
			Color:     0x2ECC71,
			Timestamp: now.UTC().Format(time.RFC3339),
		}}
	}
	return msg
}

// Share announces message on every platform. Platforms without a webhook are
// reported as skipped. Share never fails as a whole.
func (c *WebhookSharer) Share(ctx context.Context, message, link string) map[string]core.ShareResult {
	results := make(map[string]core.ShareResult, 2)
	results[string(PlatformSlack)] = c.result(PlatformSlack, c.SendSlackMessage(ctx, BuildSlackMessage(message, link, c.Username)))
	results[string(PlatformDiscord)] = c.result(PlatformDiscord, c.SendDiscordMessage(ctx, BuildDiscordMessage(message, link, c.Username, c.now())))
	return results
}

func (c *WebhookSharer) result(platform MessagePlatform, err error) core.ShareResult {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return core.ShareResult{Skipped: true, Error: err.Error()}
	case err != nil:
		logger.Warn("Social share failed", "platform", string(platform), "error", err.Error())
		return core.ShareResult{Error: err.Error()}
	default:
		logger.Info("Shared post", "platform", string(platform))
		return core.ShareResult{Success: true}
	}
}

// SendSlackMessage sends a message to the Slack webhook
func (c *WebhookSharer) SendSlackMessage(ctx context.Context, message *SlackMessage) error {
	if c.SlackWebhookURL == "" {
		return fmt.Errorf("slack %w", ErrNotConfigured)
	}
	return c.post(ctx, "slack", c.SlackWebhookURL, message)
}

// SendDiscordMessage sends a message to the Discord webhook
func (c *WebhookSharer) SendDiscordMessage(ctx context.Context, message *DiscordMessage) error {
	if c.DiscordWebhookURL == "" {
		return fmt.Errorf("discord %w", ErrNotConfigured)
	}
	return c.post(ctx, "discord", c.DiscordWebhookURL, message)
}

func (c *WebhookSharer) post(ctx context.Context, platform, url string, message any) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", platform, err)
	}

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("failed to send %s message: %w", platform, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%s webhook returned status %d: %s", platform, resp.StatusCode, string(resp.Body))
	}
	return nil
}

// ValidateWebhookURL validates if a webhook URL is properly formatted
func ValidateWebhookURL(platform MessagePlatform, url string) error {
	if url == "" {
		return fmt.Errorf("%s webhook URL cannot be empty", platform)
	}

	switch platform {
	case PlatformSlack:
		if !strings.Contains(url, "hooks.slack.com") {
			return fmt.Errorf("invalid Slack webhook URL format")
		}
	case PlatformDiscord:
		if !strings.Contains(url, "discord.com/api/webhooks") {
			return fmt.Errorf("invalid Discord webhook URL format")
		}
	default:
		return fmt.Errorf("unknown platform: %s", platform)
	}

	return nil
}
