// Package config handles configuration for the server component: defaults,
// a JSON file overlay, a .env file and environment variables, and finally
// command-line flags. Each layer overrides the one before it.
package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/server/auth/password"
)

// MinSecretKeyLength is the shortest accepted HMAC signing secret, in bytes.
const MinSecretKeyLength = 32

// Config holds runtime settings for the Gatekeeper server.
//
// There is no default SecretKey. It must come from the JSON file, the
// environment, a flag, or the S3 object named by S3Bucket and S3SecretKey.
type Config struct {
	EndpointAddrHTTP  string        `env:"HTTP_ADDRESS"`
	EndpointAddrGRPC  string        `env:"GRPC_ADDRESS"`
	StorageDriver     string        `env:"STORAGE_DRIVER"`
	DatabaseDSN       string        `env:"DATABASE_DSN"`
	SecretKey         string        `env:"SECRET_KEY"`
	TokenTTL          time.Duration `env:"TOKEN_TTL"`
	PasswordAlgorithm string        `env:"PASSWORD_ALGORITHM"`
	BcryptCost        int           `env:"BCRYPT_COST"`
	PublicPaths       []string      `env:"PUBLIC_PATHS" envSeparator:","`
	LogLevel          string        `env:"LOG_LEVEL"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3SecretKey       string `env:"S3_SECRET_OBJECT_KEY"`
	S3Region          string `env:"S3_REGION"`
	S3BaseEndpoint    string `env:"S3_BASE_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.StorageDriver = "memory"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.TokenTTL = time.Hour
	c.PasswordAlgorithm = string(password.AlgorithmBcrypt)
	c.BcryptCost = 12
	c.PublicPaths = []string{
		"/api/auth/login",
		"/api/auth/register",
		"/grpc.health.v1.Health",
	}
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and command-line flags.
// It does not validate; callers resolve the secret first and then call
// Validate.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasS3SecretSource reports whether the signing secret should be fetched
// from object storage.
func (c *Config) HasS3SecretSource() bool {
	return c.S3Bucket != "" && c.S3SecretKey != ""
}

func (c *Config) PasswordConfig() password.Config {
	return password.Config{
		Algorithm:  password.Algorithm(c.PasswordAlgorithm),
		BcryptCost: c.BcryptCost,
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is not configured"))
	} else if len(c.SecretKey) < MinSecretKeyLength {
		errs = append(errs, fmt.Errorf("secret key must be at least %d bytes", MinSecretKeyLength))
	}
	if c.TokenTTL < time.Second {
		errs = append(errs, fmt.Errorf("token ttl must be at least 1s, got %s", c.TokenTTL))
	}
	if c.EndpointAddrHTTP == "" {
		errs = append(errs, errors.New("http address is empty"))
	}

	switch c.StorageDriver {
	case "memory":
	case "postgres", "sqlite":
		if c.DatabaseDSN == "" {
			errs = append(errs, fmt.Errorf("database dsn is required for storage driver %q", c.StorageDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q (use memory, postgres or sqlite)", c.StorageDriver))
	}

	pc := c.PasswordConfig()
	if err := pc.Validate(); err != nil {
		errs = append(errs, err)
	}

	for _, p := range c.PublicPaths {
		p = strings.TrimSpace(p)
		switch {
		case !strings.HasPrefix(p, "/"):
			errs = append(errs, fmt.Errorf("public path %q must start with /", p))
		case path.Clean(p) == "/":
			errs = append(errs, fmt.Errorf("public path %q would expose every route", p))
		}
	}

	return errors.Join(errs...)
}
