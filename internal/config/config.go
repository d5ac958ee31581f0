package config

import (
	"errors"
	"os"
	"time"
)

type Config struct {
	ServerPort     string
	DatabaseURL    string
	RedisURL       string
	TokenEncKey    string
	AdminKeyHash   string
	ConnectLockTTL time.Duration
}

func LoadConfig() (*Config, error) {
	lockTTLStr := getEnv("CONNECT_LOCK_TTL", "2m")
	lockTTL, err := time.ParseDuration(lockTTLStr)
	if err != nil {
		return nil, errors.New("invalid CONNECT_LOCK_TTL format")
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		TokenEncKey:    os.Getenv("TOKEN_ENC_KEY"),
		AdminKeyHash:   os.Getenv("ADMIN_API_KEY_HASH"),
		ConnectLockTTL: lockTTL,
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.TokenEncKey == "" {
		return nil, errors.New("TOKEN_ENC_KEY is required")
	}
	if cfg.AdminKeyHash == "" {
		return nil, errors.New("ADMIN_API_KEY_HASH is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
