package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides, e.g. XCTSK_XCONTEST__TIMEOUT=10s
const EnvPrefix = "XCTSK_"

// Config represents the complete server configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	XContest XContestConfig `koanf:"xcontest"`
	Render   RenderConfig   `koanf:"render"`
}

// ServerConfig holds HTTP API settings. The listen address comes from
// prefab's own server configuration.
type ServerConfig struct {
	CorsOrigins []string `koanf:"cors_origins"`
}

// XContestConfig holds settings for the remote task code service
type XContestConfig struct {
	BaseURL    string        `koanf:"base_url"`
	Timeout    time.Duration `koanf:"timeout"`
	RetryCount int           `koanf:"retry_count"`
	CacheTTL   time.Duration `koanf:"cache_ttl"`
	APIVersion int           `koanf:"api_version"` // 1 = load, 2 = loadV2

	// Codes refreshed in the background so their first view is served from cache
	WarmCodes    []string      `koanf:"warm_codes"`
	WarmInterval time.Duration `koanf:"warm_interval"`
}

// RenderConfig holds artifact rendering settings
type RenderConfig struct {
	QRSize int `koanf:"qr_size"` // share code width and height in pixels
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			CorsOrigins: []string{"*"},
		},
		XContest: XContestConfig{
			BaseURL:      "https://tools.xcontest.org",
			Timeout:      30 * time.Second,
			RetryCount:   3,
			CacheTTL:     5 * time.Minute,
			APIVersion:   1,
			WarmInterval: 4 * time.Minute,
		},
		Render: RenderConfig{
			QRSize: 256,
		},
	}
}

// defaultsMap flattens DefaultConfig for the confmap provider
func defaultsMap() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"server.cors_origins":    d.Server.CorsOrigins,
		"xcontest.base_url":      d.XContest.BaseURL,
		"xcontest.timeout":       d.XContest.Timeout.String(),
		"xcontest.retry_count":   d.XContest.RetryCount,
		"xcontest.cache_ttl":     d.XContest.CacheTTL.String(),
		"xcontest.api_version":   d.XContest.APIVersion,
		"xcontest.warm_interval": d.XContest.WarmInterval.String(),
		"render.qr_size":         d.Render.QRSize,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// XCTSK_ prefixed environment variables, in increasing precedence. A double
// underscore in a variable name separates nested keys.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at request time
func (c *Config) Validate() error {
	if c.XContest.BaseURL == "" {
		return fmt.Errorf("xcontest.base_url is required")
	}
	if c.XContest.APIVersion != 1 && c.XContest.APIVersion != 2 {
		return fmt.Errorf("xcontest.api_version must be 1 or 2, got %d", c.XContest.APIVersion)
	}
	if c.XContest.RetryCount < 1 {
		return fmt.Errorf("xcontest.retry_count must be at least 1, got %d", c.XContest.RetryCount)
	}
	if len(c.XContest.WarmCodes) > 0 && c.XContest.WarmInterval <= 0 {
		return fmt.Errorf("xcontest.warm_interval must be positive when warm_codes are set")
	}
	if c.Render.QRSize <= 0 {
		return fmt.Errorf("render.qr_size must be positive, got %d", c.Render.QRSize)
	}
	return nil
}
