package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config lookup at an empty temp tree.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{"TADA_BACKEND", "TADA_DATA_DIR", "TADA_STORAGE_KEY", "TADA_QUOTA_BYTES",
		"TADA_LOG_LEVEL", "TADA_LOG_FORMAT", "TADA_THEME", "NO_COLOR"} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBackend, cfg.Backend)
	assert.Equal(t, DefaultStorageKey, cfg.StorageKey)
	assert.Equal(t, int64(DefaultQuotaBytes), cfg.QuotaBytes)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "data", "tada"), cfg.DataDir)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)

	userDir := filepath.Join(dir, "config", "tada")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, UserConfigFile), []byte(`
backend = "sqlite"
storage_key = "user-todos"
theme = "neon"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(`
storage_key = "project-todos"
`), 0o644))
	t.Setenv("TADA_THEME", "mono")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend, "user file applies")
	assert.Equal(t, "project-todos", cfg.StorageKey, "project file overrides user file")
	assert.Equal(t, "mono", cfg.Theme, "env overrides files")
}

func TestLoadExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "~/todos"
quota_bytes = 1024
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "todos"), cfg.DataDir)
	assert.Equal(t, int64(1024), cfg.QuotaBytes)
}

func TestLoadRejectsBadInput(t *testing.T) {
	dir := isolate(t)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte(`colour = "red"`), 0o644))
	_, err := Load(unknown)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.toml")
	require.NoError(t, os.WriteFile(broken, []byte(`backend = `), 0o644))
	_, err = Load(broken)
	assert.Error(t, err)

	t.Setenv("TADA_QUOTA_BYTES", "lots")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"sqlite", func(c *Config) { c.Backend = "sqlite" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "cloud" }, true},
		{"empty key", func(c *Config) { c.StorageKey = " " }, true},
		{"negative quota", func(c *Config) { c.QuotaBytes = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
