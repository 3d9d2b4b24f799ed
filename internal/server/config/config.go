package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	SessionTTL       time.Duration
	TokenTTL         time.Duration
	CleanupInterval  time.Duration
	MaxSessions      int
	MaxCommandLength int
	RateLimitRPS     float64
	RateLimitBurst   int
	LogLevel         slog.Level
}

// Load reads the configuration from the environment. An empty
// DATABASE_URL disables the command audit log; JWT_SECRET is required.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL_HOURS", 24*time.Hour),
		TokenTTL:         getEnvDuration("TOKEN_TTL_HOURS", 1*time.Hour),
		CleanupInterval:  getEnvDuration("CLEANUP_INTERVAL_HOURS", 15*time.Minute),
		MaxSessions:      getEnvInt("MAX_SESSIONS", 1000),
		MaxCommandLength: getEnvInt("MAX_COMMAND_LENGTH", 4096),
		RateLimitRPS:     getEnvFloat64("RATE_LIMIT_RPS", 20),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 40),
		LogLevel:         ParseLevel(getEnv("LOG_LEVEL", "info")),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "d", "verbose", "v":
		return slog.LevelDebug
	case "warn", "warning", "w":
		return slog.LevelWarn
	case "error", "e":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration reads a duration in hours. Values that are not positive
// fall back, since tickers and TTLs need a positive duration.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if hours, err := strconv.ParseFloat(val, 64); err == nil {
			if d := time.Duration(hours * float64(time.Hour)); d > 0 {
				return d
			}
		}
	}
	return fallback
}
