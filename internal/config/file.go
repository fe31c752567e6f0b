package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for TOML decoding. Durations are Go duration strings.
type fileConfig struct {
	Server struct {
		Port int    `toml:"port"`
		Env  string `toml:"env"`
	} `toml:"server"`
	Backend struct {
		URL     string `toml:"url"`
		Timeout string `toml:"timeout"`
		Mode    string `toml:"mode"`
	} `toml:"backend"`
	Database struct {
		URL             string `toml:"url"`
		MaxOpenConns    int    `toml:"max_open_conns"`
		MaxIdleConns    int    `toml:"max_idle_conns"`
		ConnMaxLifetime string `toml:"conn_max_lifetime"`
	} `toml:"database"`
	Redis struct {
		URL                string `toml:"url"`
		ValidationCacheTTL string `toml:"validation_cache_ttl"`
	} `toml:"redis"`
	Session struct {
		IdleTTL string `toml:"idle_ttl"`
	} `toml:"session"`
	Auth struct {
		Enabled         *bool `toml:"enabled"`
		RateLimitPerMin int   `toml:"rate_limit_per_min"`
	} `toml:"auth"`
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var fc fileConfig
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if fc.Server.Port != 0 {
		cfg.Server.Port = fc.Server.Port
	}
	if fc.Server.Env != "" {
		cfg.Server.Env = fc.Server.Env
	}

	if fc.Backend.URL != "" {
		cfg.Backend.BaseURL = fc.Backend.URL
	}
	if fc.Backend.Mode != "" {
		cfg.Backend.Mode = fc.Backend.Mode
	}
	if err := setDuration(&cfg.Backend.Timeout, "backend.timeout", fc.Backend.Timeout); err != nil {
		return err
	}

	if fc.Database.URL != "" {
		cfg.Database.URL = fc.Database.URL
	}
	if fc.Database.MaxOpenConns != 0 {
		cfg.Database.MaxOpenConns = fc.Database.MaxOpenConns
	}
	if fc.Database.MaxIdleConns != 0 {
		cfg.Database.MaxIdleConns = fc.Database.MaxIdleConns
	}
	if err := setDuration(&cfg.Database.ConnMaxLifetime, "database.conn_max_lifetime", fc.Database.ConnMaxLifetime); err != nil {
		return err
	}

	if fc.Redis.URL != "" {
		cfg.Redis.URL = fc.Redis.URL
	}
	if err := setDuration(&cfg.Redis.ValidationCacheTTL, "redis.validation_cache_ttl", fc.Redis.ValidationCacheTTL); err != nil {
		return err
	}

	if err := setDuration(&cfg.Session.IdleTTL, "session.idle_ttl", fc.Session.IdleTTL); err != nil {
		return err
	}

	if fc.Auth.Enabled != nil {
		cfg.Auth.Enabled = *fc.Auth.Enabled
	}
	if fc.Auth.RateLimitPerMin != 0 {
		cfg.Auth.RateLimitPerMin = fc.Auth.RateLimitPerMin
	}

	return nil
}

func setDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", field, err)
	}
	*dst = d
	return nil
}
