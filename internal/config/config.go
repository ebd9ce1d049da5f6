// Package config loads the application configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then a
// .env file, then ARBOR_* environment variables. Command-line flags are
// applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARBOR_"

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Engine  EngineConfig  `yaml:"engine"`
	Store   StoreConfig   `yaml:"store"`
	HTTP    HTTPConfig    `yaml:"http"`
	Locale  LocaleConfig  `yaml:"locale"`
	Dialogs DialogsConfig `yaml:"dialogs"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type EngineConfig struct {
	RouteID       int    `yaml:"route_id"`
	DefaultScreen int    `yaml:"default_screen"`
	PageSize      int    `yaml:"page_size"`
	BackLabel     string `yaml:"back_label"`
	ApologyKey    string `yaml:"apology_key"`
}

type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl"`
	LockTTL       time.Duration `yaml:"lock_ttl"`
	SQLitePath    string        `yaml:"sqlite_path"`

	// EncryptionKey is a base64 AES-256 key sealing every session value at rest.
	// FallbackKeys still decrypt values sealed before a rotation.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

type HTTPConfig struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

type LocaleConfig struct {
	Dir     string `yaml:"dir"` // empty uses the bundled locales
	Default string `yaml:"default"`
}

type DialogsConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Engine: EngineConfig{RouteID: 8, DefaultScreen: 0, PageSize: 5, BackLabel: "nav.back", ApologyKey: "error.generic"},
		Store: StoreConfig{
			Driver:      DriverMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "arbor:session:",
			LockTTL:     30 * time.Second,
			SQLitePath:  "arbor.db",
		},
		HTTP:   HTTPConfig{Addr: ":8080", Metrics: true},
		Locale: LocaleConfig{Default: "en"},
	}
}

// Load reads the YAML file at path (skipped when empty), the .env file at envFile
// (skipped when missing) and the process environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// Variables already set in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays ARBOR_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	num("ROUTE_ID", &c.Engine.RouteID)
	num("DEFAULT_SCREEN", &c.Engine.DefaultScreen)
	num("PAGE_SIZE", &c.Engine.PageSize)
	str("STORE_DRIVER", &c.Store.Driver)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	str("REDIS_PASSWORD", &c.Store.RedisPassword)
	num("REDIS_DB", &c.Store.RedisDB)
	str("REDIS_PREFIX", &c.Store.RedisPrefix)
	dur("SESSION_TTL", &c.Store.TTL)
	dur("LOCK_TTL", &c.Store.LockTTL)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("STORE_ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("HTTP_ADDR", &c.HTTP.Addr)
	flag("HTTP_METRICS", &c.HTTP.Metrics)
	str("LOCALE_DIR", &c.Locale.Dir)
	str("LOCALE", &c.Locale.Default)
	str("DIALOGS_DIR", &c.Dialogs.Dir)

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	if c.Engine.RouteID <= 0 {
		errs = append(errs, fmt.Errorf("engine.route_id: must be positive, got %d", c.Engine.RouteID))
	}
	if c.Engine.RouteID == c.Engine.DefaultScreen {
		errs = append(errs, fmt.Errorf("engine.route_id: collides with the default screen %d", c.Engine.DefaultScreen))
	}
	if c.Engine.DefaultScreen < 0 {
		errs = append(errs, fmt.Errorf("engine.default_screen: must not be negative"))
	}
	if c.Engine.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.page_size: must be positive, got %d", c.Engine.PageSize))
	}
	if c.Store.Driver == DriverSQLite && c.Store.SQLitePath == "" {
		errs = append(errs, errors.New("store.sqlite_path: required by the sqlite driver"))
	}
	if c.Store.TTL < 0 || c.Store.LockTTL < 0 {
		errs = append(errs, errors.New("store: ttl values must not be negative"))
	}
	return errors.Join(errs...)
}
