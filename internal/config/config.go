package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config carries every principal and secret the service needs. It is loaded
// once at startup; handlers never read the environment directly.
type Config struct {
	DatabaseURL string `validate:"required"`
	Port        string `validate:"required"`

	// AllowedEmail is the single tenant. Session principals with any other
	// email are rejected.
	AllowedEmail string `validate:"required,email"`

	// LegacyAPIKey is the static shared secret accepted in x-api-key before
	// any database lookup. Empty disables the legacy path.
	LegacyAPIKey string `validate:"omitempty,min=16"`

	// SessionSecret signs the HS256 session token carried in the cookie.
	SessionSecret string `validate:"required,min=32"`

	// PasswordHash is the bcrypt hash the login endpoint verifies against.
	PasswordHash string `validate:"required"`

	MaxOpenConns int `validate:"gte=1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          getenv("PORT", "8080"),
		AllowedEmail:  os.Getenv("CALTRACK_ALLOWED_EMAIL"),
		LegacyAPIKey:  os.Getenv("CALTRACK_API_SECRET"),
		SessionSecret: os.Getenv("CALTRACK_SESSION_SECRET"),
		PasswordHash:  os.Getenv("CALTRACK_PASSWORD_HASH"),
		MaxOpenConns:  10,
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
		}
		cfg.MaxOpenConns = n
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
