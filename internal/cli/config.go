package cli

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds settingsctl process configuration. Every field can be set from
// the environment with the SETTINGS_ prefix and overridden by a flag.
type Config struct {
	DefaultPath string `envconfig:"DEFAULT_PATH"`
	UserPath    string `envconfig:"USER_PATH"`
	GlobalPath  string `envconfig:"GLOBAL_PATH"`
	// DatabasePath stores User and Global scopes in SQLite instead of files.
	DatabasePath string `envconfig:"DATABASE_PATH"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"warn"`
	LogDev       bool   `envconfig:"LOG_DEV" default:"false"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("SETTINGS", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
