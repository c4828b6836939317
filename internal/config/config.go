package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the relay.
type Config struct {
	Port    string
	AppEnv  string
	Version string

	WebhookSecret    string
	RequireSignature bool

	DownstreamURL     string
	DownstreamTimeout time.Duration

	RedisURL       string
	RateLimitRPS   float64
	RateLimitBurst int

	DebugKey     string
	PollInterval time.Duration
	LogLevel     slog.Level
}

// Version is reported by the health and debug endpoints.
const Version = "1.1.0"

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first; variables already set in the
// environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		Version:           Version,
		WebhookSecret:     firstEnv("GITHUB_WEBHOOK_SECRET", "WEBHOOK_SECRET"),
		RequireSignature:  getEnvBool("REQUIRE_SIGNATURE", false),
		DownstreamURL:     strings.TrimRight(firstEnv("GO_SERVICE_URL", "NEXT_PUBLIC_GO_SERVICE_URL"), "/"),
		DownstreamTimeout: getEnvDuration("DOWNSTREAM_TIMEOUT", 10*time.Second),
		RedisURL:          getEnv("REDIS_URL", ""),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 30),
		DebugKey:          getEnv("DEBUG_KEY", ""),
		PollInterval:      getEnvDuration("POLL_INTERVAL", 5*time.Second),
		LogLevel:          parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants Load relies on. It is exported so callers
// that build a Config by hand (tests, the CLI) get the same checks.
func (c *Config) Validate() error {
	if c.DownstreamURL == "" {
		return fmt.Errorf("GO_SERVICE_URL is required")
	}
	if !strings.HasPrefix(c.DownstreamURL, "http://") && !strings.HasPrefix(c.DownstreamURL, "https://") {
		return fmt.Errorf("GO_SERVICE_URL must be an http(s) URL, got %q", c.DownstreamURL)
	}
	if c.RequireSignature && c.WebhookSecret == "" {
		return fmt.Errorf("REQUIRE_SIGNATURE is set but GITHUB_WEBHOOK_SECRET is empty")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	return nil
}

// SignatureVerificationEnabled reports whether GitHub signatures are checked.
func (c *Config) SignatureVerificationEnabled() bool {
	return c.WebhookSecret != ""
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
