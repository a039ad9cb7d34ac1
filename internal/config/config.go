// Package config loads the courselet server configuration: built-in defaults,
// then an optional YAML file, then COURSELET_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/courselet/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COURSELET_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config represents the complete configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Engine   EngineConfig   `yaml:"engine"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// CookieName carries the session key for browser clients.
	CookieName      string        `yaml:"cookie_name"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	// Backend is one of memory, file or redis.
	Backend string `yaml:"backend"`
	// Dir is the session directory of the file backend.
	Dir     string        `yaml:"dir"`
	LockTTL time.Duration `yaml:"lock_ttl"`
	// EncryptionKey (base64 or hex, 32 bytes) enables encrypted session blobs.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are previous keys still accepted for decryption.
	FallbackKeys []string `yaml:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// DistributedLock serializes a session key across server replicas.
	DistributedLock bool `yaml:"distributed_lock"`
}

type PostgresConfig struct {
	// DSN selects the PostgreSQL catalog and live repository. Empty = in-memory.
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type EngineConfig struct {
	// DefaultSpec is the flow at the base of every new stack.
	DefaultSpec string `yaml:"default_spec"`
	MaxHops     int    `yaml:"max_hops"`
	// Specs are doublestar globs of extra YAML specifications.
	Specs []string `yaml:"specs"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CookieName:      "courselet_session",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Dir:     ".courselet/sessions",
			LockTTL: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "courselet:session:",
		},
		Postgres: PostgresConfig{
			Migrate: true,
		},
		Engine: EngineConfig{
			DefaultSpec: "browse",
			MaxHops:     16,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.Decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays a YAML document. Unknown keys are rejected.
func (c *Config) Decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays COURSELET_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	parse := func(name string, apply func(string) error) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if err := apply(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			}
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = cast.ToDurationE(v)
			return err
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) (err error) {
			*dst, err = cast.ToBoolE(v)
			return err
		}
	}
	integer := func(dst *int) func(string) error {
		return func(v string) (err error) {
			*dst, err = cast.ToIntE(v)
			return err
		}
	}
	list := func(dst *[]string) func(string) error {
		return func(v string) error {
			*dst = splitList(v)
			return nil
		}
	}

	str("ADDR", &c.Server.Addr)
	str("COOKIE_NAME", &c.Server.CookieName)
	parse("SHUTDOWN_TIMEOUT", duration(&c.Server.ShutdownTimeout))
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("STORE", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	parse("LOCK_TTL", duration(&c.Store.LockTTL))
	str("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	parse("FALLBACK_KEYS", list(&c.Store.FallbackKeys))
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	parse("REDIS_DB", integer(&c.Redis.DB))
	str("REDIS_PREFIX", &c.Redis.Prefix)
	parse("REDIS_TTL", duration(&c.Redis.TTL))
	parse("REDIS_LOCK", boolean(&c.Redis.DistributedLock))
	str("POSTGRES_DSN", &c.Postgres.DSN)
	parse("POSTGRES_MIGRATE", boolean(&c.Postgres.Migrate))
	str("DEFAULT_SPEC", &c.Engine.DefaultSpec)
	parse("MAX_HOPS", integer(&c.Engine.MaxHops))
	parse("SPECS", list(&c.Engine.Specs))
	parse("METRICS", boolean(&c.Metrics.Enabled))

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for the file backend"))
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be memory, file or redis, got %q", c.Store.Backend))
	}
	if c.Redis.DistributedLock && c.Store.Backend != StoreRedis {
		errs = append(errs, errors.New("redis.distributed_lock requires the redis backend"))
	}
	if c.Store.LockTTL <= 0 {
		errs = append(errs, errors.New("store.lock_ttl must be positive"))
	}
	if c.Engine.DefaultSpec == "" {
		errs = append(errs, errors.New("engine.default_spec is required"))
	}
	if c.Engine.MaxHops <= 0 {
		errs = append(errs, errors.New("engine.max_hops must be positive"))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level. Call after Validate.
func (c *Config) LogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
