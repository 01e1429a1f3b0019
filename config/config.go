// Package config loads application configuration from the environment and,
// optionally, a YAML file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		Store Store `yaml:"store"`
		Clock Clock `yaml:"clock"`
		Log   Log   `yaml:"logger"`
	}

	Store struct {
		// Backend selects the persistence layer: "json" or "sqlite".
		Backend string `yaml:"backend" env:"DESPIERTA_STORE" env-default:"json"`

		// Dir is where the alarm data lives. Empty means the user config
		// dir. The directory has to be writable; saves fail loudly when the
		// application is installed somewhere protected.
		Dir string `yaml:"dir" env:"DESPIERTA_DIR"`
	}

	Clock struct {
		Interval time.Duration `yaml:"interval" env:"DESPIERTA_INTERVAL" env-default:"1s"`
		Snooze   time.Duration `yaml:"snooze"   env:"DESPIERTA_SNOOZE"   env-default:"5m"`
	}

	Log struct {
		Level string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	}
)

// Load reads configuration from path when given, otherwise from the
// environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Store.Dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.Store.Dir = filepath.Join(base, "despierta")
	}
	return cfg, nil
}
