package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBFile       string
	ListenAddr   string
	JWTSecret    string
	RedisAddr    string
	HistoryLimit int
	CallTimeout  time.Duration
}

func Load() (*Config, error) {
	callTimeout, err := time.ParseDuration(getEnv("CALL_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CALL_TIMEOUT: %w", err)
	}

	historyLimit, err := strconv.Atoi(getEnv("HISTORY_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
	}

	cfg := &Config{
		DBFile:       getEnv("PMCHAT_DB", "pmchat.db"),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		HistoryLimit: historyLimit,
		CallTimeout:  callTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be greater than 0")
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
