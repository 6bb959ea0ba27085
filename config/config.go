// Package config loads and validates the bot configuration. Environment
// variables provide the baseline; the settings table can override the chat
// identifiers and enforcement mode at startup so operators manage them from
// the admin dashboard without redeploying.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/superteam-my/onboarding-bot/internal/domain/setting"
	"github.com/superteam-my/onboarding-bot/internal/domain/shared"

	"github.com/caarlos0/env/v11"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds all runtime configuration.
type Config struct {
	// BotToken is the Telegram Bot API token.
	BotToken string `env:"BOT_TOKEN"`

	// DatabaseURL is the PostgreSQL (Supabase) connection string.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisURL backs the durable cleanup queue. Optional: empty disables
	// persistence and scheduled deletions live in memory only.
	RedisURL string `env:"REDIS_URL"`

	// MainGroupID is the gated group. Overridable from the settings table.
	MainGroupID int64 `env:"MAIN_GROUP_ID"`

	// IntroChannelID is where intros are posted. Overridable from the
	// settings table.
	IntroChannelID int64 `env:"INTRO_CHANNEL_ID"`

	// EnforcementMode is the default enforcement policy. Overridable from
	// the settings table.
	EnforcementMode setting.EnforcementMode `env:"ENFORCEMENT_MODE" envDefault:"mute"`

	// HTTPPort is where the health endpoint listens.
	HTTPPort int `env:"PORT" envDefault:"8080"`

	// LogLevel is the minimum slog level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields required before any I/O happens. The chat
// identifiers are checked separately after the settings override.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("config: BOT_TOKEN is required (set it in the admin dashboard or environment)")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if !c.EnforcementMode.IsValid() {
		return fmt.Errorf("config: invalid ENFORCEMENT_MODE %q (want mute or auto_delete)", c.EnforcementMode)
	}
	return nil
}

// ValidateChatIDs checks the chat identifiers after the settings override.
func (c *Config) ValidateChatIDs() error {
	if c.MainGroupID == 0 {
		return errors.New("config: main group ID not configured (set it in the admin dashboard or MAIN_GROUP_ID env var)")
	}
	if c.IntroChannelID == 0 {
		return errors.New("config: intro channel ID not configured (set it in the admin dashboard or INTRO_CHANNEL_ID env var)")
	}
	return nil
}

// ApplyOverrides replaces the chat identifiers and enforcement mode with
// values from the settings table when present. Dashboard values win over the
// environment. A missing key is not an error; an unreachable store is.
func (c *Config) ApplyOverrides(ctx context.Context, settings setting.Store, logger *slog.Logger) error {
	if id, ok, err := getInt64Setting(ctx, settings, setting.KeyMainGroupID, logger); err != nil {
		return err
	} else if ok {
		c.MainGroupID = id
	}

	if id, ok, err := getInt64Setting(ctx, settings, setting.KeyIntroChannelID, logger); err != nil {
		return err
	} else if ok {
		c.IntroChannelID = id
	}

	value, err := settings.Get(ctx, setting.KeyEnforcementMode)
	switch {
	case err == nil:
		mode := setting.EnforcementMode(value)
		if mode.IsValid() {
			c.EnforcementMode = mode
		} else {
			logger.Warn("ignoring invalid enforcement_mode setting", "value", value)
		}
	case !shared.IsNotFound(err):
		return fmt.Errorf("config: failed to read enforcement_mode setting: %w", err)
	}

	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getInt64Setting reads an integer setting. A malformed value is logged and
// skipped rather than taking the bot down.
func getInt64Setting(ctx context.Context, settings setting.Store, key string, logger *slog.Logger) (int64, bool, error) {
	value, err := settings.Get(ctx, key)
	if err != nil {
		if shared.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("config: failed to read %s setting: %w", key, err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logger.Warn("ignoring malformed integer setting", "key", key, "value", value)
		return 0, false, nil
	}
	return id, true, nil
}
