package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Discord DiscordConfig
	Bot     BotConfig
	Osu     OsuConfig
	Stats   StatsConfig
	Logging LoggingConfig
}

type DiscordConfig struct {
	Token string `env:"DISCORD_TOKEN,required"`
}

type BotConfig struct {
	Prefix        string `env:"BOT_PREFIX" envDefault:"^"`
	MaxConcurrent int    `env:"BOT_MAX_CONCURRENT" envDefault:"32"`
}

type OsuConfig struct {
	// APIKey is optional; without it the osu! commands report a missing key.
	APIKey string `env:"OSU_API_KEY"`
}

type StatsConfig struct {
	DBLToken      string `env:"DBL_TOKEN"`
	DBotsToken    string `env:"DBOTS_TOKEN"`
	DatadogAPIKey string `env:"DATADOG_API_KEY"`
	DatadogSite   string `env:"DATADOG_SITE" envDefault:"datadoghq.com"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts. Tests pass
// opts.Environment instead of touching the process environment.
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.Bot.Prefix = strings.TrimSpace(cfg.Bot.Prefix)
	cfg.Osu.APIKey = strings.TrimSpace(cfg.Osu.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.Bot.Prefix == "" {
		return fmt.Errorf("BOT_PREFIX must not be empty")
	}
	if c.Bot.MaxConcurrent < 1 {
		return fmt.Errorf("BOT_MAX_CONCURRENT must be positive, got %d", c.Bot.MaxConcurrent)
	}
	if c.Stats.DatadogAPIKey != "" && strings.TrimSpace(c.Stats.DatadogSite) == "" {
		return fmt.Errorf("DATADOG_SITE is required when DATADOG_API_KEY is set")
	}
	return nil
}
