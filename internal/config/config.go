// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultBackend    = "file"
	DefaultStorageKey = "todos"
	// DefaultQuotaBytes matches the usual browser local storage allowance.
	DefaultQuotaBytes = 5 << 20
	DefaultLogLevel   = "warn"
	DefaultLogFormat  = "text"
	DefaultTheme      = "classic"

	UserConfigFile    = "config.toml"
	ProjectConfigFile = ".tada.toml"
	appDirName        = "tada"
)

// Config holds the full configuration for tada.
type Config struct {
	// Storage
	Backend    string `toml:"backend"`
	DataDir    string `toml:"data_dir"`
	StorageKey string `toml:"storage_key"`
	QuotaBytes int64  `toml:"quota_bytes"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Output
	Theme   string `toml:"theme"`
	NoColor bool   `toml:"no_color"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	cfg.Backend = DefaultBackend
	cfg.DataDir = defaultDataDir()
	cfg.StorageKey = DefaultStorageKey
	cfg.QuotaBytes = DefaultQuotaBytes
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Theme = DefaultTheme
}

// Load reads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file ($XDG_CONFIG_HOME/tada/config.toml)
// 3. Project config file (.tada.toml in the working directory)
// 4. The explicit file, if path is not empty
// 5. Environment variables (TADA_*)
// Flags are applied afterwards by the caller.
func Load(path string) (*Config, error) {
	cfg := Default()

	for _, p := range []string{findUserConfigFile(), findProjectConfigFile()} {
		if p == "" {
			continue
		}
		if err := loadConfigFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", p, err)
		}
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile decodes TOML on top of cfg; keys absent from the file
// keep their current value.
func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys: %v", undecoded)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("TADA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TADA_STORAGE_KEY"); v != "" {
		cfg.StorageKey = v
	}
	if v := os.Getenv("TADA_QUOTA_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TADA_QUOTA_BYTES: %w", err)
		}
		cfg.QuotaBytes = n
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("NO_COLOR"); v != "" {
		cfg.NoColor = true
	}
	return nil
}

// Finalize expands paths and validates the result. Call it again after
// applying flag overrides.
func (c *Config) Finalize() error {
	c.DataDir = expandPath(c.DataDir)
	return c.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid backend %q, must be one of: file, sqlite, memory", c.Backend)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return errors.New("storage_key must not be empty")
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("quota_bytes must not be negative, got %d", c.QuotaBytes)
	}
	return nil
}

func findUserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, appDirName, UserConfigFile)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func findProjectConfigFile() string {
	if _, err := os.Stat(ProjectConfigFile); err != nil {
		return ""
	}
	return ProjectConfigFile
}

func defaultDataDir() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, ".local", "share", appDirName)
}

// expandPath expands environment variables and a leading ~.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		return filepath.Join(home, strings.TrimPrefix(expanded[1:], "/"))
	}
	return expanded
}
