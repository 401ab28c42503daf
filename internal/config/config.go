// Package config loads cuescore settings from a YAML file and the
// environment, and builds the logger they describe.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "cuescore.yaml"

// Config holds every setting of the scorekeeper.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Legacy  LegacyConfig  `yaml:"legacy"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig locates the match database.
type StorageConfig struct {
	Path string `yaml:"path" env:"CUESCORE_DB_PATH"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"             env:"CUESCORE_HOST"`
	Port           int           `yaml:"port"             env:"CUESCORE_PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout"     env:"CUESCORE_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout"    env:"CUESCORE_WRITE_TIMEOUT"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"     env:"CUESCORE_IDLE_TIMEOUT"`
	MaxFastWorkers int           `yaml:"max_fast_workers" env:"CUESCORE_MAX_FAST_WORKERS"`
	MaxSlowWorkers int           `yaml:"max_slow_workers" env:"CUESCORE_MAX_SLOW_WORKERS"`
}

// LegacyConfig names the two players implied by first-format match lists.
type LegacyConfig struct {
	J1 string `yaml:"j1" env:"CUESCORE_LEGACY_J1"`
	J2 string `yaml:"j2" env:"CUESCORE_LEGACY_J2"`
}

// IDs returns the legacy names in seat order.
func (l LegacyConfig) IDs() [2]string {
	return [2]string{l.J1, l.J2}
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"CUESCORE_LOG_LEVEL"`  // debug, info, warn, error
	Format string `yaml:"format" env:"CUESCORE_LOG_FORMAT"` // text or json
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Storage: StorageConfig{Path: "cuescore.db"},
		Server: ServerConfig{
			Host:           "localhost",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxFastWorkers: 100,
			MaxSlowWorkers: 4,
		},
		Legacy: LegacyConfig{J1: "Sa", J2: "Ri"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies CUESCORE_* environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Logger builds the structured logger described by the log settings.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Log.Level)}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
