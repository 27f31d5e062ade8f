package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/doomscroll/doomscroll/internal/scroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultAppID, cfg.Tracker.AppID)
	assert.Equal(t, 650, cfg.Tracker.CooldownMS)
	assert.Equal(t, 650*time.Millisecond, cfg.Cooldown())
	assert.Equal(t, 6.5, cfg.Tracker.UnitScale)
	assert.Equal(t, scroll.DefaultLandmarks, cfg.LandmarkTable())
	assert.True(t, cfg.Sources.Spool.Enabled)
	assert.False(t, cfg.Sources.DBus.Enabled)
	assert.Equal(t, "127.0.0.1:7833", cfg.ServerAddr())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty app", func(c *Config) { c.Tracker.AppID = "  " }},
		{"zero cooldown", func(c *Config) { c.Tracker.CooldownMS = 0 }},
		{"negative scale", func(c *Config) { c.Tracker.UnitScale = -1 }},
		{"unsorted landmarks", func(c *Config) {
			c.Tracker.Landmarks = []LandmarkConfig{{Name: "b", Height: 2}, {Name: "a", Height: 1}}
		}},
		{"spool without path", func(c *Config) { c.Sources.Spool.Path = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"journal without path", func(c *Config) { c.Journal.Path = "" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestValidate_DisabledSectionsSkipChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources.Spool = SpoolConfig{}
	cfg.Journal = JournalConfig{}
	cfg.Server = ServerConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestTrackerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracker.Landmarks = nil

	opts := cfg.TrackerOptions()
	assert.Equal(t, DefaultAppID, opts.AppID)
	assert.Equal(t, scroll.DefaultCooldown, opts.Cooldown)
	assert.Nil(t, opts.Landmarks)

	tr, err := scroll.New(opts)
	require.NoError(t, err)
	assert.Equal(t, scroll.DefaultLandmarks, tr.Landmarks())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DOOMSCROLL_APP_ID", "com.example.feed")
	t.Setenv("DOOMSCROLL_LOG_LEVEL", "debug")
	t.Setenv("DOOMSCROLL_PORT", "9000")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "com.example.feed", cfg.Tracker.AppID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
tracker:
  app_id: com.example.feed
  cooldown_ms: 400
  landmarks:
    - name: a shed
      height: 10
    - name: a tower
      height: 100
server:
  port: 9100
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "com.example.feed", cfg.Tracker.AppID)
	assert.Equal(t, 400*time.Millisecond, cfg.Cooldown())
	assert.Equal(t, 6.5, cfg.Tracker.UnitScale, "unset keys keep defaults")
	assert.Equal(t, scroll.Table{{Name: "a shed", Height: 10}, {Name: "a tower", Height: 100}}, cfg.LandmarkTable())
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[tracker]
app_id = "com.example.reels"
unit_scale = 3.0

[sources.dbus]
enabled = true

[logging]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "com.example.reels", cfg.Tracker.AppID)
	assert.Equal(t, 3.0, cfg.Tracker.UnitScale)
	assert.True(t, cfg.Sources.DBus.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 650, cfg.Tracker.CooldownMS)
	assert.Equal(t, DefaultConfig().Tracker.Landmarks, cfg.Tracker.Landmarks)
}

func TestLoad_LandmarkTable(t *testing.T) {
	const tomlTable = `
[[tracker.landmarks]]
name = "a Bus"
height = 10.0

[[tracker.landmarks]]
name = "a Lighthouse"
height = 20.0
`
	const yamlTable = `
tracker:
  landmarks:
    - name: a Bus
      height: 10
    - name: a Lighthouse
      height: 20
`
	const tomlNoName = `
[[tracker.landmarks]]
height = 10.0

[[tracker.landmarks]]
height = 20.0
`
	const yamlNoName = `
tracker:
  landmarks:
    - height: 10
    - height: 20
`
	want := []LandmarkConfig{{Name: "a Bus", Height: 10}, {Name: "a Lighthouse", Height: 20}}

	tests := []struct {
		name    string
		file    string
		data    string
		wantErr bool
	}{
		{"toml table", "config.toml", tomlTable, false},
		{"yaml table", "config.yaml", yamlTable, false},
		{"detected toml table", "config.conf", tomlTable, false},
		{"detected yaml table", "config.conf", yamlTable, false},
		{"toml row without name", "config.toml", tomlNoName, true},
		{"yaml row without name", "config.yaml", yamlNoName, true},
		{"detected toml row without name", "config.conf", tomlNoName, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.data), 0644))

			cfg, err := Load(path)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Tracker.Landmarks)
			assert.Equal(t, "between a Bus (10 ft) and a Lighthouse (20 ft)",
				cfg.LandmarkTable().Classify(13).Label)
		})
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAppID, cfg.Tracker.AppID)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tracker: [unclosed"), 0644))
	_, err := Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("tracker:\n  cooldown_ms: -5\n"), 0644))
	_, err = Load(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoadOrCreateAt(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg, created, err := LoadOrCreateAt(path)
			require.NoError(t, err)
			assert.True(t, created)
			assert.FileExists(t, path)
			assert.Equal(t, DefaultConfig().Tracker, cfg.Tracker)

			again, created, err := LoadOrCreateAt(path)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, cfg.Tracker, again.Tracker)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y.db"), expandPath("~/x/y.db"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "", expandPath(""))
}
