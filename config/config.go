// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Feature sets validate independently: a missing Last.fm key disables summaries
// without touching the relay, and vice versa (see the Validate* helpers).
package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	// Slack
	SlackBotToken string
	SlackAppToken string
	ChannelID     string
	BotOwnerID    string

	// Last.fm
	LastFMAPIKey  string
	LastFMUser    string
	LastFMBaseURL string

	// Destination upload service
	UploadBaseURL string
	UploadToken   string

	// Scheduling
	DailySpec string
	Timezone  string
}

// Load reads environment variables and applies defaults. It doesn't fail if feature
// credentials are missing; use the Validate* helpers at the point a feature is wired.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.SlackAppToken = os.Getenv("SLACK_APP_TOKEN")
	cfg.ChannelID = os.Getenv("CHANNEL_ID")
	cfg.BotOwnerID = os.Getenv("BOT_OWNER_ID")

	cfg.LastFMAPIKey = os.Getenv("LASTFM_API_KEY")
	cfg.LastFMUser = os.Getenv("LASTFM_USER")
	cfg.LastFMBaseURL = os.Getenv("LASTFM_BASE_URL")
	if cfg.LastFMBaseURL == "" {
		cfg.LastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"
	}

	cfg.UploadBaseURL = strings.TrimRight(os.Getenv("UPLOAD_BASE_URL"), "/")
	cfg.UploadToken = os.Getenv("UPLOAD_TOKEN")

	cfg.DailySpec = os.Getenv("DAILY_CRON")
	if cfg.DailySpec == "" {
		cfg.DailySpec = "0 19 * * *"
	}
	cfg.Timezone = os.Getenv("DAILY_TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}

	return cfg, nil
}

// ValidateSlackReady checks required fields for connecting to Slack at all.
func (c *Config) ValidateSlackReady() error {
	if c.SlackBotToken == "" || c.SlackAppToken == "" {
		return fmt.Errorf("missing slack env: require SLACK_BOT_TOKEN, SLACK_APP_TOKEN")
	}
	if c.BotOwnerID == "" {
		return fmt.Errorf("missing slack env: require BOT_OWNER_ID")
	}
	return nil
}

// ValidateSummaryReady checks required fields for the listening-summary flow.
func (c *Config) ValidateSummaryReady() error {
	if c.LastFMAPIKey == "" || c.LastFMUser == "" {
		return fmt.Errorf("missing lastfm env: require LASTFM_API_KEY, LASTFM_USER")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("missing slack env: require CHANNEL_ID for scheduled summaries")
	}
	return nil
}

// ValidateRelayReady checks required fields for the attachment relay flow.
func (c *Config) ValidateRelayReady() error {
	if c.UploadBaseURL == "" || c.UploadToken == "" {
		return fmt.Errorf("missing upload env: require UPLOAD_BASE_URL, UPLOAD_TOKEN")
	}
	return nil
}
