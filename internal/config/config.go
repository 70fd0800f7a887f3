package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port        string
	DatabaseURL string
	BearerToken string
	// Provider
	Provider         string
	TwelveDataURL    string
	TwelveDataAPIKey string
	// Worker
	WorkerPoll      time.Duration
	WorkerBatchSize int
	PullSchedule    bool
	// Redis (idempotency)
	IdempotencyBackend string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisTTL           time.Duration
	// Ingestion config file
	IngestionConfigPath string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                 getEnv("ENV", "local"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		BearerToken:         getEnv("VALID_BEARER_TOKEN", ""),
		Provider:            getEnv("PROVIDER", "twelvedata"),
		TwelveDataURL:       getEnv("TWELVE_DATA_URL", "https://api.twelvedata.com/time_series"),
		TwelveDataAPIKey:    getEnv("TWELVE_DATA_API_KEY", ""),
		WorkerPoll:          time.Duration(atoiDef(getEnv("WORKER_POLL_MS", "250"), 250)) * time.Millisecond,
		WorkerBatchSize:     atoiDef(getEnv("WORKER_BATCH_LIMIT", "10"), 10),
		PullSchedule:        getEnv("PULL_SCHEDULE", "") == "1",
		IdempotencyBackend:  getEnv("IDEMPOTENCY_BACKEND", "none"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             atoiDef(getEnv("REDIS_DB", "0"), 0),
		RedisTTL:            time.Duration(atoiDef(getEnv("IDEMPOTENCY_TTL_MS", "86400000"), 86400000)) * time.Millisecond,
		IngestionConfigPath: getEnv("CONFIG_PATH", "ingestion_config.yaml"),
	}
}
