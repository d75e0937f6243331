package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvPrefix = "GATEKEEPER_"

	// EnvFileVar names an alternative .env file.
	EnvFileVar     = EnvPrefix + "ENV_FILE"
	defaultEnvFile = ".env"
)

// parseEnv loads the .env file (if present) into the process environment
// and then overlays GATEKEEPER_* variables onto config. Variables already set
// in the environment win over the .env file.
func parseEnv(config *Config) error {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = defaultEnvFile
	}
	if err := loadDotEnv(path); err != nil {
		return err
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
