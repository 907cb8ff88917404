package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.Confirm.Timeout)
	assert.False(t, cfg.Confirm.NotifyOnTimeout)
	assert.False(t, cfg.Cooldown.Enabled)
	assert.False(t, cfg.Alias.SuppressCollisionWarnings)
	assert.Equal(t, "!", cfg.Discord.Prefix)
}

func TestLoad_File(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
discord:
  prefix: "?"
alias:
  suppress_collision_warnings: true
  unresolved_log: file
confirm:
  timeout: 15s
  notify_on_timeout: true
ingest:
  sources:
    maimai:
      - kind: json
        url: https://example.com/maimai.json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "?", cfg.Discord.Prefix)
	assert.True(t, cfg.Alias.SuppressCollisionWarnings)
	assert.Equal(t, UnresolvedFile, cfg.Alias.UnresolvedLog)
	assert.Equal(t, 15*time.Second, cfg.Confirm.Timeout)
	assert.True(t, cfg.Confirm.NotifyOnTimeout)
	require.Len(t, cfg.Ingest.Sources["maimai"], 1)
	// untouched keys keep their defaults
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
}

func TestLoad_MissingDefaultIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().DB.Path, cfg.DB.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// registers a restore of the variable, which godotenv is about to set
	t.Setenv("GCM_DB_PATH", "placeholder")
	require.NoError(t, os.Unsetenv("GCM_DB_PATH"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GCM_DB_PATH=from-env.db\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.DB.Path)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GCM_DISCORD_TOKEN":               "tok",
		"GCM_HTTP_ADDR":                   ":9090",
		"GCM_CONFIRM_TIMEOUT":             "3s",
		"GCM_SUPPRESS_COLLISION_WARNINGS": "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "tok", cfg.Discord.Token)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.Confirm.Timeout)
	assert.True(t, cfg.Alias.SuppressCollisionWarnings)

	env["GCM_CONFIRM_TIMEOUT"] = "soon"
	require.Error(t, cfg.ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"zero timeout", func(c *Config) { c.Confirm.Timeout = 0 }, "confirm.timeout"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad unresolved log", func(c *Config) { c.Alias.UnresolvedLog = "kafka" }, "alias.unresolved_log"},
		{"unknown game", func(c *Config) {
			c.Ingest.Sources = map[string][]SourceSpec{"sdvx": {{Kind: "json", URL: "x"}}}
		}, "unknown game"},
		{"csv without path", func(c *Config) {
			c.Ingest.Sources = map[string][]SourceSpec{"chuni": {{Kind: "csv"}}}
		}, "needs path"},
		{"sheets outside maimai", func(c *Config) {
			c.Ingest.Sources = map[string][]SourceSpec{"ongeki": {{Kind: "sheets", URL: "x"}}}
		}, "maimai only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
