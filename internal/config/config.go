// Package config loads bot configuration from a YAML file, a .env file and
// GCM_* environment variables, in that order of increasing precedence.
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

	"github.com/lomotos10/GCM-bot/internal/game"
)

// DefaultPath is read when no --config flag is given; a missing default file is not an error.
const DefaultPath = "gcm-bot.yaml"

// Unresolved query log backends.
const (
	UnresolvedSQLite = "sqlite"
	UnresolvedFile   = "file"
	UnresolvedNone   = "none"
)

type Config struct {
	Discord  Discord  `yaml:"discord"`
	HTTP     HTTP     `yaml:"http"`
	DB       DB       `yaml:"db"`
	Alias    Alias    `yaml:"alias"`
	Confirm  Confirm  `yaml:"confirm"`
	Cooldown Cooldown `yaml:"cooldown"`
	Ingest   Ingest   `yaml:"ingest"`
	Log      Log      `yaml:"log"`
}

type Discord struct {
	Token   string `yaml:"token"`
	Prefix  string `yaml:"prefix"`
	GuildID string `yaml:"guild_id"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type DB struct {
	Path string `yaml:"path"`
}

type Alias struct {
	Dir                       string `yaml:"dir"`
	SuppressCollisionWarnings bool   `yaml:"suppress_collision_warnings"`
	Watch                     bool   `yaml:"watch"`
	UnresolvedLog             string `yaml:"unresolved_log"`
	UnresolvedLogPath         string `yaml:"unresolved_log_path"`
}

type Confirm struct {
	Timeout         time.Duration `yaml:"timeout"`
	NotifyOnTimeout bool          `yaml:"notify_on_timeout"`
}

// Cooldown limits how often one user or one channel may query in the listed guilds.
type Cooldown struct {
	Enabled        bool          `yaml:"enabled"`
	User           time.Duration `yaml:"user"`
	Channel        time.Duration `yaml:"channel"`
	Guilds         []string      `yaml:"guilds"`
	ExemptChannels []string      `yaml:"exempt_channels"`
}

type Ingest struct {
	RequestsPerSecond float64                 `yaml:"requests_per_second"`
	Sources           map[string][]SourceSpec `yaml:"sources"`
}

// SourceSpec describes one chart source of a game.
type SourceSpec struct {
	Kind   string `yaml:"kind"` // json, csv or sheets (maimai only)
	URL    string `yaml:"url"`
	Path   string `yaml:"path"`
	Region string `yaml:"region"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Discord: Discord{Prefix: "!"},
		HTTP:    HTTP{Addr: "127.0.0.1:8080"},
		DB:      DB{Path: "gcm.db"},
		Alias: Alias{
			Dir:               "data/aliases",
			Watch:             true,
			UnresolvedLog:     UnresolvedSQLite,
			UnresolvedLogPath: "data/aliases/alias_log.tsv",
		},
		Confirm: Confirm{Timeout: 10 * time.Second},
		Cooldown: Cooldown{
			User:    30 * time.Minute,
			Channel: 5 * time.Minute,
		},
		Ingest: Ingest{RequestsPerSecond: 2},
		Log:    Log{Level: "info", Format: "console"},
	}
}

// Load reads path (optional when it is DefaultPath or empty), then .env, then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return cfg, fmt.Errorf("config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("config .env: %w", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from GCM_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("GCM_DISCORD_TOKEN", &c.Discord.Token)
	str("GCM_DISCORD_PREFIX", &c.Discord.Prefix)
	str("GCM_DISCORD_GUILD_ID", &c.Discord.GuildID)
	str("GCM_HTTP_ADDR", &c.HTTP.Addr)
	str("GCM_DB_PATH", &c.DB.Path)
	str("GCM_ALIAS_DIR", &c.Alias.Dir)
	str("GCM_LOG_LEVEL", &c.Log.Level)
	str("GCM_LOG_FORMAT", &c.Log.Format)
	if v, ok := lookup("GCM_CONFIRM_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GCM_CONFIRM_TIMEOUT: %w", err)
		}
		c.Confirm.Timeout = d
	}
	if v, ok := lookup("GCM_SUPPRESS_COLLISION_WARNINGS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GCM_SUPPRESS_COLLISION_WARNINGS: %w", err)
		}
		c.Alias.SuppressCollisionWarnings = b
	}
	return nil
}

// Validate rejects settings the bot cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Confirm.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("confirm.timeout must be positive, got %s", c.Confirm.Timeout))
	}
	if c.Cooldown.Enabled && (c.Cooldown.User < 0 || c.Cooldown.Channel < 0) {
		errs = append(errs, errors.New("cooldown durations must not be negative"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Alias.UnresolvedLog {
	case UnresolvedSQLite, UnresolvedFile, UnresolvedNone:
	default:
		errs = append(errs, fmt.Errorf("alias.unresolved_log %q is not one of sqlite, file, none", c.Alias.UnresolvedLog))
	}
	if c.Discord.Prefix == "" {
		errs = append(errs, errors.New("discord.prefix must not be empty"))
	}
	for name, specs := range c.Ingest.Sources {
		if _, err := game.Parse(name); err != nil {
			errs = append(errs, fmt.Errorf("ingest.sources: %w", err))
		}
		g, _ := game.Parse(name)
		for i, s := range specs {
			switch {
			case (s.Kind == "json" || s.Kind == "sheets") && s.URL == "":
				errs = append(errs, fmt.Errorf("ingest.sources.%s[%d]: %s source needs url", name, i, s.Kind))
			case s.Kind == "csv" && s.Path == "":
				errs = append(errs, fmt.Errorf("ingest.sources.%s[%d]: csv source needs path", name, i))
			case s.Kind == "sheets" && g != game.Maimai:
				errs = append(errs, fmt.Errorf("ingest.sources.%s[%d]: sheets sources are maimai only", name, i))
			case s.Kind != "json" && s.Kind != "csv" && s.Kind != "sheets":
				errs = append(errs, fmt.Errorf("ingest.sources.%s[%d]: unknown kind %q", name, i, s.Kind))
			}
		}
	}
	return errors.Join(errs...)
}
