package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=barstock port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	CORSOrigins    []string
	RedisAddress   string // empty: in-process cache
	LogLevel       string
	LogDevelopment bool
	BusinessName   string // printed at the top of exported statements
	CurrencySymbol string

	// Warnings collects non-fatal notes about development defaults.
	Warnings []string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL must be a duration such as 24h: %w", err)
	}
	if ttl <= 0 {
		return nil, errors.New("TOKEN_TTL must be positive")
	}

	devLog, err := strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false"))
	if err != nil {
		return nil, fmt.Errorf("LOG_DEVELOPMENT must be a boolean: %w", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       ttl,
		CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
		RedisAddress:   getEnv("REDIS_ADDRESS", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: devLog,
		BusinessName:   getEnv("BUSINESS_NAME", "MKHEKHELEZI GLC"),
		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "R"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}

	if cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN is using the local development default")
	}
	if strings.Join(cfg.CORSOrigins, ",") == defaultCORSOrigins {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS is using the local development default")
	}
	if cfg.RedisAddress == "" {
		cfg.Warnings = append(cfg.Warnings, "REDIS_ADDRESS not set; revoked tokens are kept in process memory")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
