package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 30,
		},
		Intake: IntakeConfig{
			DebounceSeconds:  180, // 3 minutes of sender inactivity
			MediaConcurrency: 4,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			APIBase: "https://generativelanguage.googleapis.com/v1beta",
		},
		Admin: AdminConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults + env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
// Secrets are env-only; numeric overrides are optional tuning knobs.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = sanitizeToken(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = strings.TrimSpace(v)
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = strings.TrimSpace(v)
	} else if v := os.Getenv("API_KEY"); v != "" {
		// Legacy env name still used by older deployments.
		cfg.Gemini.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = strings.TrimSpace(v)
	}
	if v := os.Getenv("INTAKE_DEBOUNCE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Intake.DebounceSeconds = n
		}
	}
	if v := os.Getenv("ADMIN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Admin.Port = n
		}
	}
}

// sanitizeToken strips all whitespace from a bot token. Tokens pasted into
// env files pick up stray newlines that break Bot API URLs.
func sanitizeToken(s string) string {
	return strings.Join(strings.Fields(s), "")
}
