// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/tabsplit/internal/receipt"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Port   int
	Store  string
	DBPath string

	// JWTSecret enables authentication. When empty every request runs as DevUserID.
	JWTSecret string
	TokenTTL  time.Duration

	// RedisURL switches session locks from in-process to Redis.
	RedisURL string

	ExtractorURL     string
	ExtractorAPIKey  string
	ExtractorTimeout time.Duration
	MaxUploadBytes   int

	StaticPath string
}

// DevUserID owns every session when authentication is disabled.
const DevUserID = "00000000-0000-0000-0000-000000000001"

// AuthEnabled reports whether requests must carry a JWT.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Store:           getEnv("STORE", StoreSQLite),
		DBPath:          getEnv("DB_PATH", "./data/tabsplit.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ExtractorURL:    os.Getenv("EXTRACTOR_URL"),
		ExtractorAPIKey: os.Getenv("EXTRACTOR_API_KEY"),
		StaticPath:      os.Getenv("STATIC_PATH"),
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getInt("MAX_UPLOAD_BYTES", receipt.DefaultMaxUploadBytes); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExtractorTimeout, err = getDuration("EXTRACTOR_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.Store != StoreSQLite && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StoreSQLite, StoreMemory, cfg.Store)
	}
	if !cfg.AuthEnabled() {
		slog.Warn("JWT_SECRET not set, running without authentication", "dev_user_id", DevUserID)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
