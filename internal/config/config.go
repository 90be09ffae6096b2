package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	// CombatInterval triggers an encounter every Nth quest turn.
	CombatInterval int

	NarratorProvider string
	NarratorAPIKey   string
	NarratorModel    string
	NarratorTimeout  time.Duration
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		CombatInterval:   getEnvInt("COMBAT_INTERVAL", 10),
		NarratorProvider: getEnv("NARRATOR_PROVIDER", "mock"),
		NarratorAPIKey:   getEnv("NARRATOR_API_KEY", ""),
		NarratorModel:    getEnv("NARRATOR_MODEL", "venice-uncensored"),
		NarratorTimeout:  getEnvDuration("NARRATOR_TIMEOUT", 15*time.Second),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
