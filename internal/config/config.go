// Package config loads recstore settings from a YAML file, RECSTORE_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recstore/internal/store"
)

// EnvPrefix prefixes environment overrides: RECSTORE_DATABASE_PATH
// overrides database.path.
const EnvPrefix = "RECSTORE"

// Config is the full configuration.
type Config struct {
	Database Database `yaml:"database" mapstructure:"database"`

	// Schemas is the directory holding the CUE collection declarations.
	Schemas string `yaml:"schemas" mapstructure:"schemas"`

	Log Log `yaml:"log" mapstructure:"log"`
}

// Database configures the backing store.
type Database struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	Path          string `yaml:"path" mapstructure:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
	JournalMode   string `yaml:"journal_mode" mapstructure:"journal_mode"`
}

// Log configures the default logger.
type Log struct {
	Level string `yaml:"level" mapstructure:"level"`
}

const defaultBusyTimeoutMS = 5000

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: Database{
			Driver:        store.DriverCGO,
			Path:          "recstore.db",
			BusyTimeoutMS: defaultBusyTimeoutMS,
			JournalMode:   "WAL",
		},
		Schemas: "schemas",
		Log:     Log{Level: "info"},
	}
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Load reads the configuration. An empty path looks for recstore.yaml in
// the working directory; a missing file there is not an error. Environment
// variables override the file.
func Load(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("database.busy_timeout_ms", def.Database.BusyTimeoutMS)
	v.SetDefault("database.journal_mode", def.Database.JournalMode)
	v.SetDefault("schemas", def.Schemas)
	v.SetDefault("log.level", def.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("recstore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and log levels. A non-positive busy
// timeout is reset to the default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverCGO, store.DriverPure:
	default:
		return fmt.Errorf("%w: database.driver %q: must be %q or %q",
			ErrInvalid, c.Database.Driver, store.DriverCGO, store.DriverPure)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalid)
	}
	if c.Database.BusyTimeoutMS <= 0 {
		c.Database.BusyTimeoutMS = defaultBusyTimeoutMS
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Level is the configured slog level.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, s)
	}
	return l, nil
}

// WriteDefault writes the default configuration to path. An existing file
// is left alone and reported with os.ErrExist.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("write config %s: %w", path, os.ErrExist)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	header := "# recstore configuration. RECSTORE_* environment variables override these keys.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
