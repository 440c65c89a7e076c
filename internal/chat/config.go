// Package chat provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the Parley service.
package chat

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig defines the parameters for per-session chat-line rate
// limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings. Values are sanitized on
// construction; a zero field falls back to its default.
type Config struct {
	// ChatAddr is the TCP listen address for the line protocol.
	ChatAddr string

	// HTTPAddr is the listen address for the monitoring API and the
	// WebSocket bridge.
	HTTPAddr string

	// ReapInterval is how often the reaper prunes dead sessions and empty
	// rooms.
	ReapInterval time.Duration

	// MaxLineBytes bounds a single inbound line.
	MaxLineBytes int

	// AllowedOrigins lists origins permitted to reach the HTTP surface.
	AllowedOrigins []string

	RateLimit RateLimitConfig
}

func defaultConfig() Config {
	return Config{
		ChatAddr:     ":8080",
		HTTPAddr:     ":8081",
		ReapInterval: 30 * time.Second,
		MaxLineBytes: 1024,
		AllowedOrigins: []string{
			"http://localhost:8081",
		},
		RateLimit: RateLimitConfig{
			Burst:          10,
			RefillInterval: time.Second,
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	defaults := defaultConfig()

	if cfg.ChatAddr == "" {
		cfg.ChatAddr = defaults.ChatAddr
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaults.HTTPAddr
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaults.ReapInterval
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = defaults.MaxLineBytes
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaults.RateLimit.Burst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaults.RateLimit.RefillInterval
	}
	return cfg
}

// NewConfig creates a Config populated with default values for all
// settings.
func NewConfig() Config {
	return defaultConfig()
}

// NewConfigFromEnv creates a Config from environment variables, falling
// back to default values for anything unset or unparsable.
func NewConfigFromEnv() Config {
	cfg := defaultConfig()

	if addr := os.Getenv("SERVER_PORT"); addr != "" {
		cfg.ChatAddr = addr
	}
	if addr := os.Getenv("HTTP_PORT"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if interval := os.Getenv("REAP_INTERVAL"); interval != "" {
		cfg.ReapInterval = parseSeconds(interval, cfg.ReapInterval)
	}
	if maxLine := os.Getenv("MAX_MESSAGE_SIZE"); maxLine != "" {
		cfg.MaxLineBytes = parsePositiveInt(maxLine, cfg.MaxLineBytes)
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parsePositiveInt(burst, cfg.RateLimit.Burst)
	}
	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	return sanitizeConfig(cfg)
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parsePositiveInt(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
