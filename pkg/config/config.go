// Package config loads service configuration: defaults, then an optional
// YAML file, then environment variables (highest precedence).
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds everything the service reads at startup.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// EngineTimeoutMS bounds one recognition call.
	EngineTimeoutMS int `koanf:"engine_timeout_ms"`

	// EngineLanguage and EngineWhitelist configure tesseract.
	EngineLanguage  string `koanf:"engine_language"`
	EngineWhitelist string `koanf:"engine_whitelist"`

	// EngineRateLimit caps recognitions per second across all callers.
	EngineRateLimit float64 `koanf:"engine_rate_limit"`

	// ContrastGain is the preprocessing RGB channel multiplier.
	ContrastGain float64 `koanf:"contrast_gain"`

	// MaxUploadBytes rejects oversized screenshot uploads.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RedisAddr enables the redis record cache when non-empty; otherwise an
	// in-process cache is used.
	RedisAddr       string `koanf:"redis_addr"`
	CacheTTLMinutes int    `koanf:"cache_ttl_minutes"`

	// WatchDir and WatchWorkers configure the directory-watch worker.
	WatchDir     string `koanf:"watch_dir"`
	WatchWorkers int    `koanf:"watch_workers"`
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		Addr:            ":8081",
		LogLevel:        "info",
		EngineTimeoutMS: 15000,
		EngineRateLimit: 4,
		ContrastGain:    1.2,
		MaxUploadBytes:  5 * 1024 * 1024,
		CacheTTLMinutes: 60,
		WatchDir:        "public/screens",
		WatchWorkers:    0, // 0 means NumCPU
	}
}

// Load layers defaults, the YAML file named by MATCHLENS_CONFIG (if set) and
// MATCHLENS_* environment variables.
func Load() (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv("MATCHLENS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("MATCHLENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "matchlens_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.EngineTimeoutMS <= 0 {
		return nil, errors.New("engine_timeout_ms must be positive")
	}
	return &cfg, nil
}
