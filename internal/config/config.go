package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the clipforge server and CLI.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// BackendConfig points at the media-processing backend. A zero Timeout means
// requests are never cut off by the client.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
	Mode    string
}

// DatabaseConfig is optional. With an empty URL job history is not recorded.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional. With an empty URL validation caching and rate
// limiting are disabled.
type RedisConfig struct {
	URL                string
	ValidationCacheTTL time.Duration
}

type SessionConfig struct {
	IdleTTL time.Duration
}

type AuthConfig struct {
	Enabled         bool
	RateLimitPerMin int
}

const (
	BackendModeHTTP = "http"
	BackendModeMock = "mock"

	DefaultBackendURL = "http://localhost:8000"
)

var validBackendModes = map[string]bool{
	BackendModeHTTP: true,
	BackendModeMock: true,
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Env:  "development",
		},
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Mode:    BackendModeHTTP,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			ValidationCacheTTL: 5 * time.Minute,
		},
		Session: SessionConfig{
			IdleTTL: 2 * time.Hour,
		},
		Auth: AuthConfig{
			RateLimitPerMin: 60,
		},
	}
}

// Load reads configuration from the optional TOML file named by
// CLIPFORGE_CONFIG and then from environment variables, and returns a
// validated Config. Environment variables win over the file.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CLIPFORGE_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = envInt("CLIPFORGE_PORT", cfg.Server.Port)
	cfg.Server.Env = envString("CLIPFORGE_ENV", cfg.Server.Env)

	cfg.Backend.BaseURL = envString("BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = envDuration("BACKEND_TIMEOUT", cfg.Backend.Timeout)
	cfg.Backend.Mode = envString("BACKEND_MODE", cfg.Backend.Mode)

	cfg.Database.URL = envString("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = envDuration("DATABASE_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Redis.URL = envString("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.ValidationCacheTTL = envDuration("VALIDATION_CACHE_TTL", cfg.Redis.ValidationCacheTTL)

	cfg.Session.IdleTTL = envDuration("SESSION_IDLE_TTL", cfg.Session.IdleTTL)

	cfg.Auth.Enabled = envBool("AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.RateLimitPerMin = envInt("RATE_LIMIT_PER_MIN", cfg.Auth.RateLimitPerMin)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("CLIPFORGE_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("BACKEND_URL must start with http:// or https://, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must not be negative")
	}
	if !validBackendModes[c.Backend.Mode] {
		return fmt.Errorf("BACKEND_MODE must be one of http, mock; got %q", c.Backend.Mode)
	}

	if c.Database.URL != "" &&
		!strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
	}

	if c.Redis.URL != "" &&
		!strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://")
	}
	if c.Redis.ValidationCacheTTL < 0 {
		return fmt.Errorf("VALIDATION_CACHE_TTL must not be negative")
	}

	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	if c.Auth.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when AUTH_ENABLED is true")
	}

	return nil
}

// HistoryEnabled reports whether job runs and ingestions are persisted.
func (c *Config) HistoryEnabled() bool {
	return c.Database.URL != ""
}

// CacheEnabled reports whether Redis backs the validation cache and rate limiter.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != ""
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
