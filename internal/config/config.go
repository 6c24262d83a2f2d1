// Package config reads the server configuration from the environment.
// cmd/server overlays command-line flags on top of what Load returns.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the API server.
type Config struct {
	Port             int
	DatabaseURL      string
	JWTSecret        string // empty: login and protected routes fail with a config error
	JWTExpiresIn     time.Duration
	Environment      string
	LogLevel         slog.Level
	CORSOrigin       string
	KafkaBrokers     []string // empty: events are discarded
	KafkaTopicPrefix string
	SeedCatalog      bool
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() Config {
	cfg := Config{
		Port:             getIntEnv("PORT", 3001),
		DatabaseURL:      getEnv("DATABASE_URL", "data/plantando.db"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		Environment:      getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
		LogLevel:         parseLevel(getEnv("LOG_LEVEL", "debug")),
		CORSOrigin:       getEnv("CORS_ORIGIN", "*"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "plantando"),
		SeedCatalog:      getBoolEnv("SEED_CATALOG", false),
	}

	expiry, err := ParseExpiry(getEnv("JWT_EXPIRES_IN", "1h"))
	if err != nil {
		expiry = time.Hour
	}
	cfg.JWTExpiresIn = expiry
	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", ""))
	return cfg
}

// Production reports whether error details must be hidden from clients.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ParseExpiry accepts a Go duration ("90m"), a number of seconds ("3600")
// or a number of days ("7d").
func ParseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("config: empty expiry")
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("config: expiry must be positive, got %q", value)
		}
		return time.Duration(secs) * time.Second, nil
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("config: invalid expiry %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: invalid expiry %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: expiry must be positive, got %q", value)
	}
	return d, nil
}

func parseLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
