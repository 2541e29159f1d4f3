package config

import (
	"os"
	"strconv"
	"strings"
)

// RuntimeConfig holds process settings for the standalone binaries.
type RuntimeConfig struct {
	Environment  string
	LogLevel     string
	RelayAddr    string
	RedisAddr    string
	TicketSecret string
	// RelayRate is the sustained frames per second each relay connection may send.
	RelayRate  float64
	RelayBurst int
	// GameConfigPath is optional; empty keeps the built-in defaults.
	GameConfigPath string
}

func Load() *RuntimeConfig {
	return &RuntimeConfig{
		Environment:    getEnv("HW_ENVIRONMENT", "development"),
		LogLevel:       strings.ToLower(getEnv("HW_LOG_LEVEL", "info")),
		RelayAddr:      getEnv("HW_RELAY_ADDR", ":8080"),
		RedisAddr:      getEnv("HW_REDIS_ADDR", "localhost:6379"),
		TicketSecret:   getEnv("HW_TICKET_SECRET", "dev-secret"),
		RelayRate:      getEnvFloat("HW_RELAY_RATE", 20),
		RelayBurst:     getEnvInt("HW_RELAY_BURST", 40),
		GameConfigPath: getEnv("HW_GAME_CONFIG", ""),
	}
}

func (c *RuntimeConfig) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}
