// Package config loads KnowGraph settings from flags, KNOWGRAPH_* environment
// variables and an optional knowgraph.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "KNOWGRAPH"

// Config is the full application configuration.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Session SessionConfig `mapstructure:"session"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Log     LogConfig     `mapstructure:"log"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"http", &c.HTTP},
		{"db", &c.DB},
		{"session", &c.Session},
		{"admin", &c.Admin},
		{"notify", &c.Notify},
		{"log", &c.Log},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.CORSOrigins, validation.Each(validation.Required)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// DBConfig selects where signups and events live. When PostgresURL is set,
// signups go to PostgreSQL; events always stay in the SQLite file at Path.
type DBConfig struct {
	Path        string `mapstructure:"path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

var postgresURL = regexp.MustCompile(`^postgres(ql)?://`)

func (c *DBConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PostgresURL, validation.Match(postgresURL).Error("must be a postgres:// URL")),
	)
}

// CatalogConfig points at a catalog file. An empty Path serves the embedded
// default catalog.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// SessionConfig tunes demo sessions.
type SessionConfig struct {
	AdvanceDelay time.Duration `mapstructure:"advance_delay"`
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
}

func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AdvanceDelay, validation.Min(time.Duration(0)), validation.Max(time.Minute)),
		validation.Field(&c.IdleTTL, validation.Min(time.Duration(0))),
	)
}

// AdminConfig guards the admin endpoints with one shared bearer token,
// stored as a bcrypt hash. Empty disables the admin endpoints.
type AdminConfig struct {
	TokenHash string `mapstructure:"token_hash"`
}

var bcryptHash = regexp.MustCompile(`^\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}$`)

func (c *AdminConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TokenHash, validation.Match(bcryptHash).Error("must be a bcrypt hash")),
	)
}

// Enabled reports whether admin endpoints are served.
func (c *AdminConfig) Enabled() bool { return c.TokenHash != "" }

// NotifyConfig lists the signup notification channels. The log channel is
// always on.
type NotifyConfig struct {
	RedisURL      string        `mapstructure:"redis_url"`
	RedisKey      string        `mapstructure:"redis_key"`
	WebhookURL    string        `mapstructure:"webhook_url"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	LLMDrafts     bool          `mapstructure:"llm_drafts"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

var redisURL = regexp.MustCompile(`^rediss?://`)

func (c *NotifyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RedisURL, validation.Match(redisURL).Error("must be a redis:// URL")),
		validation.Field(&c.WebhookURL, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In("text", "json")),
	)
}

// SlogLevel maps Level to a slog.Level, defaulting to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w in the configured format.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.ToLower(c.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			AdvanceDelay: 1500 * time.Millisecond,
			IdleTTL:      30 * time.Minute,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaults flattens Default into viper keys, so every key is known to
// AutomaticEnv before Unmarshal.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"http.addr":             d.HTTP.Addr,
		"http.cors_origins":     d.HTTP.CORSOrigins,
		"http.shutdown_timeout": d.HTTP.ShutdownTimeout,
		"db.path":               d.DB.Path,
		"db.postgres_url":       d.DB.PostgresURL,
		"catalog.path":          d.Catalog.Path,
		"catalog.watch":         d.Catalog.Watch,
		"session.advance_delay": d.Session.AdvanceDelay,
		"session.idle_ttl":      d.Session.IdleTTL,
		"admin.token_hash":      d.Admin.TokenHash,
		"notify.redis_url":      d.Notify.RedisURL,
		"notify.redis_key":      d.Notify.RedisKey,
		"notify.webhook_url":    d.Notify.WebhookURL,
		"notify.webhook_secret": d.Notify.WebhookSecret,
		"notify.llm_drafts":     d.Notify.LLMDrafts,
		"notify.timeout":        d.Notify.Timeout,
		"log.level":             d.Log.Level,
		"log.format":            d.Log.Format,
		"log.file":              d.Log.File,
	}
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"addr":          "http.addr",
	"db":            "db.path",
	"postgres-url":  "db.postgres_url",
	"catalog":       "catalog.path",
	"watch":         "catalog.watch",
	"advance-delay": "session.advance_delay",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"log-file":      "log.file",
}

// NewViper returns a viper instance with defaults, environment binding and
// the config file loaded. configFile, when non-empty, must exist; otherwise
// knowgraph.yaml is looked up in the working directory and the user config
// directory and silently skipped if absent.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// KNOWGRAPH_DB predates the db section.
	_ = v.BindEnv("db.path", EnvPrefix+"_DB_PATH", EnvPrefix+"_DB")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("knowgraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "knowgraph"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// BindFlags binds the flags listed in FlagKeys that exist in fs.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// FromViper decodes and validates the configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load is NewViper, BindFlags and FromViper in one call. fs may be nil.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	if fs != nil {
		if err := BindFlags(v, fs); err != nil {
			return nil, err
		}
	}
	return FromViper(v)
}
