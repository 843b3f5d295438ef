package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default values for the relay configuration.
const (
	DefaultPort       = 3000
	DefaultCORSOrigin = "*"
)

// Config holds the relay configuration parsed from the `server:` section of
// the config file, with environment overrides applied on top.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all relay settings.
type ServerConfig struct {
	// Port is the HTTP/WebSocket listening port (default 3000).
	// The PORT environment variable overrides it.
	Port int `yaml:"port"`

	// CORSOrigin is the value sent in Access-Control-Allow-Origin
	// (default "*"). The CORS_ORIGIN environment variable overrides it.
	CORSOrigin string `yaml:"cors_origin"`
}

// Load reads the config file at path, fills missing fields with defaults,
// applies environment overrides, and validates the result. A missing file is
// not an error — the relay then runs on defaults and environment alone.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus environment only.
	case err != nil:
		return nil, fmt.Errorf("relay config: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("relay config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       DefaultPort,
			CORSOrigin: DefaultCORSOrigin,
		},
	}
}

// applyEnv overlays the PORT and CORS_ORIGIN environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT %q is not a number", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	return nil
}

// validate checks structural constraints on the effective configuration.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin == "" {
		return fmt.Errorf("server.cors_origin must not be empty")
	}
	return nil
}
