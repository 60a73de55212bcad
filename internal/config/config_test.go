package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-token"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }, "http"},
		{"blank cors origin", func(c *Config) { c.HTTP.CORSOrigins = []string{""} }, "http"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log"},
		{"negative delay", func(c *Config) { c.Session.AdvanceDelay = -time.Second }, "session"},
		{"huge delay", func(c *Config) { c.Session.AdvanceDelay = time.Hour }, "session"},
		{"mysql url", func(c *Config) { c.DB.PostgresURL = "mysql://localhost/db" }, "db"},
		{"http redis url", func(c *Config) { c.Notify.RedisURL = "http://localhost:6379" }, "notify"},
		{"plain token", func(c *Config) { c.Admin.TokenHash = "letmein" }, "admin"},
		{"tiny notify timeout", func(c *Config) { c.Notify.Timeout = time.Millisecond }, "notify"},
		{"postgres url", func(c *Config) { c.DB.PostgresURL = "postgres://u:p@localhost:5432/kg" }, ""},
		{"redis url", func(c *Config) { c.Notify.RedisURL = "redis://localhost:6379/0" }, ""},
		{"webhook", func(c *Config) { c.Notify.WebhookURL = "https://hooks.example.com/signup" }, ""},
		{"bcrypt token", func(c *Config) { c.Admin.TokenHash = string(hash) }, ""},
		{"zero delay", func(c *Config) { c.Session.AdvanceDelay = 0 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "knowgraph.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
http:
  addr: ":9000"
  cors_origins: ["https://knowgraph.dev"]
session:
  advance_delay: 2s
log:
  level: debug
notify:
  webhook_url: https://hooks.example.com/a
`), 0o644))

	t.Setenv("KNOWGRAPH_LOG_LEVEL", "warn")
	t.Setenv("KNOWGRAPH_DB", "/tmp/kg.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	fs.String("log-format", "text", "")
	require.NoError(t, fs.Parse([]string{"--addr", ":7000"}))

	cfg, err := Load(file, fs)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Addr, "flag beats file")
	assert.Equal(t, "warn", cfg.Log.Level, "env beats file")
	assert.Equal(t, "text", cfg.Log.Format, "unset flag keeps default")
	assert.Equal(t, 2*time.Second, cfg.Session.AdvanceDelay)
	assert.Equal(t, []string{"https://knowgraph.dev"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "https://hooks.example.com/a", cfg.Notify.WebhookURL)
	assert.Equal(t, "/tmp/kg.db", cfg.DB.Path)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KNOWGRAPH_HTTP_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("KNOWGRAPH_NOTIFY_LLM_DRAFTS", "true")
	t.Setenv("KNOWGRAPH_DB_PATH", "/data/kg.db")
	t.Setenv("KNOWGRAPH_DB", "/ignored.db")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.Notify.LLMDrafts)
	assert.Equal(t, "/data/kg.db", cfg.DB.Path)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("KNOWGRAPH_LOG_FORMAT", "xml")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLogConfig_SlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO"} {
		assert.Equal(t, want, LogConfig{Level: in}.SlogLevel().String(), in)
	}
}
