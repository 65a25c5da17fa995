// Package config reads the server configuration from the environment.
//
// A .env file in the working directory is loaded first if present, using
// github.com/joho/godotenv. Variables already set in the real environment
// win over the file, so the same binary behaves the same in a container
// (env only) and on a laptop (.env).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server needs.
type Config struct {
	Port     int
	DBPath   string
	Env      string // APP_ENV: "development" (default), "test", "production"
	LogLevel slog.Level
	// LogFormat is "text" or "json".
	LogFormat string

	JWTSecret string
	TokenTTL  time.Duration
	// BcryptCost of 0 means auth.DefaultCost. Tests lower it to bcrypt.MinCost.
	BcryptCost int

	// StaticDir, when set, is a pre-built client bundle served for every
	// path that is not an API route.
	StaticDir string

	GitHubToken string
	// GitHubAPIURL overrides https://api.github.com, mostly for tests.
	GitHubAPIURL string

	// RedisURL enables rate limiting of the register and login endpoints.
	// Empty means no rate limiting.
	RedisURL        string
	RateLimit       int
	RateLimitWindow time.Duration

	// TrustProxyHeaders makes the server take the client address from
	// X-Forwarded-For / X-Real-IP. Enable it only behind a reverse proxy
	// that sets those headers, or clients can pick their own rate-limit
	// bucket.
	TrustProxyHeaders bool
}

const (
	defaultPort            = 5000
	defaultDBPath          = "data/devconnector.db"
	defaultTokenTTL        = time.Hour
	defaultRateLimit       = 10
	defaultRateLimitWindow = time.Minute
)

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Tests pass a map lookup instead of
// touching the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            defaultPort,
		DBPath:          defaultDBPath,
		Env:             "development",
		LogLevel:        slog.LevelInfo,
		LogFormat:       "text",
		TokenTTL:        defaultTokenTTL,
		RateLimit:       defaultRateLimit,
		RateLimitWindow: defaultRateLimitWindow,
	}

	var err error
	if v := getenv("PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("APP_ENV"); v != "" {
		cfg.Env = strings.ToLower(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", v, err)
		}
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	cfg.JWTSecret = getenv("JWT_SECRET")
	if v := getenv("TOKEN_TTL"); v != "" {
		if cfg.TokenTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("config: invalid TOKEN_TTL %q: %w", v, err)
		}
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		if cfg.BcryptCost, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("config: invalid BCRYPT_COST %q: %w", v, err)
		}
	}

	cfg.StaticDir = getenv("STATIC_DIR")
	cfg.GitHubToken = getenv("GITHUB_TOKEN")
	cfg.GitHubAPIURL = getenv("GITHUB_API_URL")

	cfg.RedisURL = getenv("REDIS_URL")
	if v := getenv("RATE_LIMIT"); v != "" {
		if cfg.RateLimit, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("config: invalid RATE_LIMIT %q: %w", v, err)
		}
	}
	if v := getenv("RATE_LIMIT_WINDOW"); v != "" {
		if cfg.RateLimitWindow, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("config: invalid RATE_LIMIT_WINDOW %q: %w", v, err)
		}
	}

	if v := getenv("TRUST_PROXY_HEADERS"); v != "" {
		if cfg.TrustProxyHeaders, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("config: invalid TRUST_PROXY_HEADERS %q: %w", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required values are present and meet the security
// bar for the environment.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf(`LOG_FORMAT must be "text" or "json", got %q`, c.LogFormat)
	}
	if c.RedisURL != "" {
		if c.RateLimit <= 0 {
			return fmt.Errorf("RATE_LIMIT must be positive, got %d", c.RateLimit)
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
		}
	}
	return nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
