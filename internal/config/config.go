package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port                string
	DatabaseURL         string
	RedisURL            string
	WebhookTimeout      time.Duration
	DispatchConcurrency int
	BroadcastPageSize   int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	dbURL := getEnv("DATABASE_URL", "")
	redisURL := getEnv("REDIS_URL", "")
	timeoutSec := getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 10)
	concurrency := getEnvInt("DISPATCH_CONCURRENCY", 10)
	pageSize := getEnvInt("BROADCAST_PAGE_SIZE", 500)

	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if timeoutSec <= 0 {
		return nil, fmt.Errorf("WEBHOOK_TIMEOUT_SECONDS must be positive")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("DISPATCH_CONCURRENCY must be positive")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("BROADCAST_PAGE_SIZE must be positive")
	}

	return &Config{
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		WebhookTimeout:      time.Duration(timeoutSec) * time.Second,
		DispatchConcurrency: concurrency,
		BroadcastPageSize:   pageSize,
	}, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
