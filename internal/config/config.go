package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the intake bot.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Intake   IntakeConfig   `json:"intake"`
	Gemini   GeminiConfig   `json:"gemini"`
	Database DatabaseConfig `json:"database"`
	Admin    AdminConfig    `json:"admin"`
}

// TelegramConfig configures the Telegram bot transport.
// Token is NEVER read from the config file (secret) — only from env TELEGRAM_BOT_TOKEN.
type TelegramConfig struct {
	Token       string `json:"-"`               // from env TELEGRAM_BOT_TOKEN only
	Proxy       string `json:"proxy,omitempty"` // optional HTTP proxy URL for the Bot API
	PollTimeout int    `json:"poll_timeout,omitempty"`
}

// IntakeConfig configures the session aggregation engine.
type IntakeConfig struct {
	// DebounceSeconds is the quiet period after a sender's last message
	// before their buffered session is finalized.
	DebounceSeconds int `json:"debounce_seconds,omitempty"`

	// MediaConcurrency bounds concurrent media URL resolution during finalization.
	MediaConcurrency int `json:"media_concurrency,omitempty"`
}

// Debounce returns the quiet period as a duration.
func (c IntakeConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// GeminiConfig configures the field extraction service.
// APIKey comes from env GEMINI_API_KEY (or legacy API_KEY) only.
type GeminiConfig struct {
	APIKey  string `json:"-"`
	Model   string `json:"model,omitempty"`
	APIBase string `json:"api_base,omitempty"`
}

// DatabaseConfig configures Postgres.
// DSN is NEVER read from the config file (secret) — only from env DATABASE_URL.
type DatabaseConfig struct {
	DSN string `json:"-"`
}

// AdminConfig configures the admin HTTP API.
// Token comes from env ADMIN_TOKEN only; empty disables auth (dev mode).
type AdminConfig struct {
	Host  string `json:"host,omitempty"`
	Port  int    `json:"port,omitempty"`
	Token string `json:"-"`
}

// Addr returns the host:port listen address for the admin API.
func (c AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks that required secrets are present for serving.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}
