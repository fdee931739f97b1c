// Package config loads runtime startup configuration from YAML, with
// environment variables overriding the secret-bearing fields so deployments
// can keep credentials out of the config file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8787
	defaultEnv        = "development"
)

// AppConfig holds runtime startup configuration.
type AppConfig struct {
	Port           int      `yaml:"port"`
	DSN            string   `yaml:"dsn"`
	RedisURL       string   `yaml:"redis_url"`
	Env            string   `yaml:"env"` // "development" | "production"
	AllowedOrigins []string `yaml:"allowed_origins"`

	JWTSecret       string `yaml:"jwt_secret"`
	RelaySecret     string `yaml:"relay_secret"`
	RelaySigningKey string `yaml:"relay_signing_key"`

	// ModeratorIDs is the raw allow-list: comma, space, or newline delimited
	// user ids, parsed by the auth resolver.
	ModeratorIDs string `yaml:"moderator_ids"`

	PerspectiveAPIKey string `yaml:"perspective_api_key"`
	DiscordWebhookURL string `yaml:"discord_webhook_url"`

	// Profanity maps locale → banned phrase list. The lists are deployment
	// data, not code; empty means the local filter matches nothing.
	Profanity map[string][]string `yaml:"profanity"`
}

// Load reads the YAML config at path and applies env overrides. A missing
// file is not an error: everything can come from the environment.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{Port: defaultPort, Env: defaultEnv}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only configuration
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required (config %q or DATABASE_DSN)", path)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	overrideString(&cfg.DSN, "DATABASE_DSN")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideString(&cfg.Env, "APP_ENV")
	overrideString(&cfg.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.RelaySecret, "RELAY_SECRET")
	overrideString(&cfg.RelaySigningKey, "RELAY_SIGNING_KEY")
	overrideString(&cfg.ModeratorIDs, "MODERATOR_IDS")
	overrideString(&cfg.PerspectiveAPIKey, "PERSPECTIVE_API_KEY")
	overrideString(&cfg.DiscordWebhookURL, "DISCORD_WEBHOOK_URL")
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// IsDev reports whether the app runs in a development-like environment.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
