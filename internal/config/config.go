package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort       = "3000"
	DefaultAPIBaseURL = "http://localhost:8000/api"
	DefaultSessionTTL = 24 * time.Hour
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string
	APIBaseURL    string
	SessionSecret string
	SessionTTL    time.Duration
}

// Load reads configuration from a .env file (when present) and the process
// environment. The session secret has no default; signed session cookies
// are worthless with a guessable key.
func Load() (*Config, error) {
	// Missing .env is fine; env vars may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", DefaultPort),
		APIBaseURL:    getEnv("API_BASE_URL", DefaultAPIBaseURL),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    DefaultSessionTTL,
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", raw, err)
		}
		cfg.SessionTTL = ttl
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
