package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads the config at path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	path = expandPath(path)

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// LoadOrCreateAt loads the config at path, writing the defaults there first
// when the file does not exist. The bool reports whether it was created.
func LoadOrCreateAt(path string) (*Config, bool, error) {
	if path == "" {
		path = Path()
	}
	path = expandPath(path)

	created := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(DefaultConfig(), path); err != nil {
			return nil, false, fmt.Errorf("failed to create default config: %w", err)
		}
		created = true
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, created, err
	}
	return cfg, created, nil
}

// Save writes cfg to path in the format implied by its extension.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encode TOML: %w", err)
		}
	default:
		buf.WriteString("# doomscroll configuration\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		enc.Close()
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

// loadConfigFromFile decodes path on top of the defaults.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cfg, err = decodeTOML(data)
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	default:
		cfg, err = autoDetectAndParse(data)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeTarget is the defaults minus the landmark list. The TOML decoder
// fills an existing slice in place, so rows left out of the file would
// inherit default names.
func decodeTarget() *Config {
	cfg := DefaultConfig()
	cfg.Tracker.Landmarks = nil
	return cfg
}

// restoreLandmarks puts the default table back when the file has none.
func restoreLandmarks(cfg *Config) *Config {
	if cfg.Tracker.Landmarks == nil {
		cfg.Tracker.Landmarks = DefaultConfig().Tracker.Landmarks
	}
	return cfg
}

func decodeTOML(data []byte) (*Config, error) {
	cfg := decodeTarget()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}
	return restoreLandmarks(cfg), nil
}

func decodeYAML(data []byte) (*Config, error) {
	cfg := decodeTarget()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	return restoreLandmarks(cfg), nil
}

// autoDetectAndParse tries TOML, then YAML, each from fresh defaults.
func autoDetectAndParse(data []byte) (*Config, error) {
	if cfg, err := decodeTOML(data); err == nil {
		return cfg, nil
	}
	if cfg, err := decodeYAML(data); err == nil {
		return cfg, nil
	}
	return nil, fmt.Errorf("parse config: unable to parse config file (tried TOML, YAML)")
}

func (c *Config) expandPaths() {
	c.Sources.Spool.Path = expandPath(c.Sources.Spool.Path)
	c.Journal.Path = expandPath(c.Journal.Path)
	c.Logging.File = expandPath(c.Logging.File)
}

// expandPath resolves a leading ~ against the home directory.
func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
