// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	GitHubToken    string
	FeedURLs       []string
	PollInterval   time.Duration
	FetchTimeout   time.Duration
	DatabasePath   string
	LogLevel       string
	Sinks          []string
	PrinterAddr    string
	TelegramToken  string
	TelegramChatID int64
	Filters        string
	PrimeOnStart   bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		DatabasePath:  os.Getenv("DATABASE_PATH"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		PrinterAddr:   os.Getenv("PRINTER_ADDR"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Filters:       os.Getenv("NOTIFY_FILTERS"),
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.FeedURLs = splitList(os.Getenv("FEED_URLS"))

	var err error
	cfg.PollInterval, err = durationOrDefault("POLL_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.FetchTimeout, err = durationOrDefault("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.Sinks = splitList(os.Getenv("SINKS"))
	if len(cfg.Sinks) == 0 {
		cfg.Sinks = []string{"log"}
	}
	for _, s := range cfg.Sinks {
		switch s {
		case "log", "printer", "telegram":
		default:
			return nil, fmt.Errorf("unknown sink %q in SINKS", s)
		}
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
	}

	cfg.PrimeOnStart = true
	if raw := os.Getenv("PRIME_ON_START"); raw != "" {
		cfg.PrimeOnStart, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PRIME_ON_START %q: %w", raw, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for _, s := range c.Sinks {
		switch s {
		case "printer":
			if c.PrinterAddr == "" {
				return fmt.Errorf("PRINTER_ADDR is required for the printer sink")
			}
		case "telegram":
			if c.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram sink")
			}
			if c.TelegramChatID == 0 {
				return fmt.Errorf("TELEGRAM_CHAT_ID is required for the telegram sink")
			}
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return d, nil
}
