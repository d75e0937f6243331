// Package config holds the CLI client settings. Values come from built-in
// defaults, an optional JSON file (-c or -config), GATEKEEPER_* environment
// variables and finally command-line flags, each layer overriding the last.
//
// Supported flags
//
//	-a string   base URL of the Gatekeeper HTTP API
//	-token str  access token for authenticated commands
//	-t int      request timeout (seconds)
//
// JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "timeout": "10s"
//	}
//
// The token is deliberately absent from the JSON schema; pass it with
// -token or GATEKEEPER_TOKEN.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const EnvPrefix = "GATEKEEPER_"

type Config struct {
	ServerURL string        `env:"SERVER_URL"`
	Token     string        `env:"TOKEN"`
	Timeout   time.Duration `env:"CLIENT_TIMEOUT"`
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Token = ""
	c.Timeout = 10 * time.Second
}

// LoadConfig builds a Config from defaults, JSON, environment and flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg); err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
