// Package config holds the doomscroll configuration and its defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/doomscroll/doomscroll/internal/scroll"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// DefaultAppID is the application tracked when none is configured.
const DefaultAppID = "com.instagram.android"

// Config is the full daemon configuration.
type Config struct {
	Tracker TrackerConfig `yaml:"tracker" toml:"tracker"`
	Sources SourcesConfig `yaml:"sources" toml:"sources"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Journal JournalConfig `yaml:"journal" toml:"journal"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// TrackerConfig configures the scroll tracker. These values are read once at
// startup.
type TrackerConfig struct {
	AppID      string           `yaml:"app_id" toml:"app_id"`
	CooldownMS int              `yaml:"cooldown_ms" toml:"cooldown_ms"`
	UnitScale  float64          `yaml:"unit_scale" toml:"unit_scale"`
	Landmarks  []LandmarkConfig `yaml:"landmarks,omitempty" toml:"landmarks,omitempty"`
}

// LandmarkConfig is one row of the landmark table.
type LandmarkConfig struct {
	Name   string  `yaml:"name" toml:"name"`
	Height float64 `yaml:"height" toml:"height"`
}

type SourcesConfig struct {
	Spool SpoolConfig `yaml:"spool" toml:"spool"`
	DBus  DBusConfig  `yaml:"dbus" toml:"dbus"`
}

// SpoolConfig points at a JSONL file that an external collector appends
// events to.
type SpoolConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

type DBusConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// ServerConfig configures the websocket/HTTP reading server.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port"`
	AuthToken string `yaml:"auth_token,omitempty" toml:"auth_token,omitempty"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// Dir returns the doomscroll home directory (~/.doomscroll).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".doomscroll"
	}
	return filepath.Join(home, ".doomscroll")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a configuration with every field populated.
func DefaultConfig() *Config {
	dir := Dir()
	landmarks := make([]LandmarkConfig, 0, len(scroll.DefaultLandmarks))
	for _, l := range scroll.DefaultLandmarks {
		landmarks = append(landmarks, LandmarkConfig{Name: l.Name, Height: l.Height})
	}
	return &Config{
		Tracker: TrackerConfig{
			AppID:      DefaultAppID,
			CooldownMS: int(scroll.DefaultCooldown / time.Millisecond),
			UnitScale:  scroll.DefaultUnitScale,
			Landmarks:  landmarks,
		},
		Sources: SourcesConfig{
			Spool: SpoolConfig{
				Enabled: true,
				Path:    filepath.Join(dir, "events.jsonl"),
			},
			DBus: DBusConfig{Enabled: false},
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    7833,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "data", "journal.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tracker.AppID) == "" {
		return fmt.Errorf("%w: tracker.app_id is required", ErrInvalid)
	}
	if c.Tracker.CooldownMS <= 0 {
		return fmt.Errorf("%w: tracker.cooldown_ms must be positive, got %d", ErrInvalid, c.Tracker.CooldownMS)
	}
	if c.Tracker.UnitScale <= 0 {
		return fmt.Errorf("%w: tracker.unit_scale must be positive, got %v", ErrInvalid, c.Tracker.UnitScale)
	}
	if len(c.Tracker.Landmarks) > 0 {
		if err := c.LandmarkTable().Validate(); err != nil {
			return fmt.Errorf("%w: tracker.landmarks: %v", ErrInvalid, err)
		}
	}
	if c.Sources.Spool.Enabled && c.Sources.Spool.Path == "" {
		return fmt.Errorf("%w: sources.spool.path is required when the spool is enabled", ErrInvalid)
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("%w: server.port out of range: %d", ErrInvalid, c.Server.Port)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("%w: journal.path is required when the journal is enabled", ErrInvalid)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// ApplyEnvOverrides lets DOOMSCROLL_* variables override file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DOOMSCROLL_APP_ID"); v != "" {
		c.Tracker.AppID = v
	}
	if v := os.Getenv("DOOMSCROLL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOOMSCROLL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DOOMSCROLL_AUTH_TOKEN"); v != "" {
		c.Server.AuthToken = v
	}
}

// Cooldown returns the tracker cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Tracker.CooldownMS) * time.Millisecond
}

// LandmarkTable converts the configured landmarks. An empty list yields nil,
// which the tracker replaces with the default table.
func (c *Config) LandmarkTable() scroll.Table {
	if len(c.Tracker.Landmarks) == 0 {
		return nil
	}
	t := make(scroll.Table, 0, len(c.Tracker.Landmarks))
	for _, l := range c.Tracker.Landmarks {
		t = append(t, scroll.Landmark{Name: l.Name, Height: l.Height})
	}
	return t
}

// TrackerOptions builds scroll.Options from the tracker section.
func (c *Config) TrackerOptions() scroll.Options {
	return scroll.Options{
		AppID:     c.Tracker.AppID,
		Cooldown:  c.Cooldown(),
		UnitScale: c.Tracker.UnitScale,
		Landmarks: c.LandmarkTable(),
	}
}

// ServerAddr returns host:port for the reading server.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
