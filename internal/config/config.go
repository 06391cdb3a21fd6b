// Package config loads caketrack settings from flags, environment, and an
// optional config file in the data directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Engine preference values.
const (
	// EngineAuto probes SQLite and falls back to flat files on failure.
	EngineAuto = "auto"
	// EngineSQLite requires the structured backend; no probe fallback.
	EngineSQLite = "sqlite"
	// EngineFlat skips the probe and uses flat files from the start.
	EngineFlat = "flat"
)

// Config holds the resolved settings for one process.
type Config struct {
	// DataDir is where both backends and the event topic live.
	// Default: ~/.caketrack
	DataDir string `mapstructure:"data_dir"`

	// Engine is the backend preference: auto, sqlite, or flat.
	Engine string `mapstructure:"engine"`

	// LogFile, when set, routes the shared logger to a rotating file
	// instead of stderr.
	LogFile string `mapstructure:"log_file"`

	// SeedFile optionally overrides the default catalog seed.
	SeedFile string `mapstructure:"seed_file"`
}

// Load resolves configuration with the usual precedence: explicit file,
// then CAKETRACK_* environment variables, then defaults. A missing config
// file is fine; a malformed one is not.
//
// If path is empty, config.yaml inside the data directory is tried.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("engine", EngineAuto)
	v.SetDefault("log_file", "")
	v.SetDefault("seed_file", "")

	v.SetEnvPrefix("CAKETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	switch cfg.Engine {
	case EngineAuto, EngineSQLite, EngineFlat:
	default:
		return nil, fmt.Errorf("invalid engine %q (want auto, sqlite, or flat)", cfg.Engine)
	}

	return &cfg, nil
}

// DatabasePath returns the structured backend's database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "caketrack.db")
}

// EventsDir returns the change-notification topic directory.
func (c *Config) EventsDir() string {
	return filepath.Join(c.DataDir, "events")
}

// defaultDataDir is ~/.caketrack, or a relative fallback when the home
// directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".caketrack"
	}
	return filepath.Join(home, ".caketrack")
}
