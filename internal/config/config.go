// Package config assembles all runtime configuration from environment
// variables in one place so startup ordering is explicit.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        string
	Environment string

	LogLevel string
	LogFile  string

	DatabaseURL string

	JWTSecret []byte

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// Tracing (disabled unless an OTLP endpoint is set)
	OTLPEndpoint string
	SamplingRate float64
}

// Load reads .env (if present) and the process environment. JWT_SECRET is the
// only hard requirement; everything else has a development default.
func Load() (*Config, error) {
	// Missing .env is fine in production where env vars come from the runtime.
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Environment:   getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault("LOG_FILE", "server.log"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     []byte(secret),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		OTLPEndpoint:  os.Getenv("OTLP_ENDPOINT"),
		SamplingRate:  1.0,
	}

	if rate := os.Getenv("TRACE_SAMPLING_RATE"); rate != "" {
		if parsed, err := strconv.ParseFloat(rate, 64); err == nil && parsed > 0 && parsed <= 1 {
			cfg.SamplingRate = parsed
		}
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
