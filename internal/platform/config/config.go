// Package config loads application configuration from environment variables.
// All variables use the TRIVIA_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterhellberg/duration"
)

const defaultJWTSecret = "change-me-in-production"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Quiz     QuizConfig
	Log      LogConfig
	SeedPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// AuthConfig holds admin authentication settings.
type AuthConfig struct {
	JWTSecret         string
	AccessTokenTTL    int // minutes
	AdminPasswordHash string
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// QuizConfig holds question listing and quiz play settings.
type QuizConfig struct {
	QuestionsPerPage int
	MaxQuestions     int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with TRIVIA_ prefix.
func Load() (*Config, error) {
	ttl, err := envDuration("TRIVIA_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TRIVIA_SERVER_PORT", 8080),
			Host: envStr("TRIVIA_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("TRIVIA_DATABASE_URL", ""),
			MaxConns: envInt("TRIVIA_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("TRIVIA_DATABASE_MIN_CONNS", 2),
		},
		Cache: CacheConfig{
			URL: envStr("TRIVIA_CACHE_URL", ""),
			TTL: ttl,
		},
		Auth: AuthConfig{
			JWTSecret:         envStr("TRIVIA_AUTH_JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL:    envInt("TRIVIA_AUTH_ACCESS_TOKEN_TTL", 60),
			AdminPasswordHash: envStr("TRIVIA_AUTH_ADMIN_PASSWORD_HASH", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("TRIVIA_CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Quiz: QuizConfig{
			QuestionsPerPage: envInt("TRIVIA_QUESTIONS_PER_PAGE", 10),
			MaxQuestions:     envInt("TRIVIA_QUIZ_MAX_QUESTIONS", 5),
		},
		Log: LogConfig{
			Level:  envStr("TRIVIA_LOG_LEVEL", "info"),
			Format: envStr("TRIVIA_LOG_FORMAT", "json"),
		},
		SeedPath: envStr("TRIVIA_SEED_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Quiz.QuestionsPerPage <= 0 {
		return fmt.Errorf("TRIVIA_QUESTIONS_PER_PAGE must be positive, got %d", c.Quiz.QuestionsPerPage)
	}
	if c.Quiz.MaxQuestions <= 0 {
		return fmt.Errorf("TRIVIA_QUIZ_MAX_QUESTIONS must be positive, got %d", c.Quiz.MaxQuestions)
	}

	if c.AuthEnabled() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("TRIVIA_AUTH_JWT_SECRET must be set when TRIVIA_AUTH_ADMIN_PASSWORD_HASH is configured")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("TRIVIA_AUTH_ACCESS_TOKEN_TTL must be positive, got %d", c.Auth.AccessTokenTTL)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("TRIVIA_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// AuthEnabled returns true if mutating endpoints require an admin token.
func (c *Config) AuthEnabled() bool {
	return c.Auth.AdminPasswordHash != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// envDuration accepts Go durations plus day and week units ("1d", "2w").
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := duration.Parse(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
