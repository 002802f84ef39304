package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig verifies defaults are valid and independent copies
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.ANSIC, cfg.TimestampFormat)
	assert.Equal(t, LevelInfo, cfg.Level)

	cfg.Level = LevelError
	assert.Equal(t, LevelInfo, DefaultConfig().Level)
}

// TestConfigValidate covers rejected values
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty timestamp", func(c *Config) { c.TimestampFormat = " " }},
		{"bad target", func(c *Config) { c.ConsoleTarget = "tty" }},
		{"bad color", func(c *Config) { c.Color = "rainbow" }},
		{"dotted extension", func(c *Config) { c.EnableFile = true; c.Extension = ".log" }},
		{"empty file name", func(c *Config) { c.EnableFile = true; c.FileName = "" }},
		{"negative backups", func(c *Config) { c.MaxBackups = -1 }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeoutMs = 0 }},
		{"negative heartbeat", func(c *Config) { c.HeartbeatIntervalS = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestApplyOverride covers key=value parsing and type conversion
func TestApplyOverride(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyOverride(
		"level=warn",
		"enable_file=true",
		"directory=/tmp/ccerve",
		"max_backups=9",
		"color=never",
	)
	require.NoError(t, err)

	assert.Equal(t, LevelWarn, cfg.Level)
	assert.True(t, cfg.EnableFile)
	assert.Equal(t, "/tmp/ccerve", cfg.Directory)
	assert.Equal(t, int64(9), cfg.MaxBackups)
	assert.Equal(t, ColorNever, cfg.Color)

	require.NoError(t, cfg.ApplyOverride("level=-4"))
	assert.Equal(t, LevelDebug, cfg.Level)
}

// TestApplyOverrideErrors verifies errors are collected across overrides
func TestApplyOverrideErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyOverride("nokey", "max_backups=lots", "unknown=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple configuration errors")
	assert.Contains(t, err.Error(), "unknown config key")

	err = cfg.ApplyOverride("color=plaid")
	assert.Error(t, err, "validation runs after overrides")
}

// TestNewConfigFromFile loads the log section of a TOML file
func TestNewConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccerve.toml")
	content := `
[log]
level = 4
name = "from-file"
enable_console = false
max_size_mb = 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, cfg.Level)
	assert.Equal(t, "from-file", cfg.Name)
	assert.False(t, cfg.EnableConsole)
	assert.Equal(t, int64(7), cfg.MaxSizeMB)
	assert.Equal(t, time.ANSIC, cfg.TimestampFormat, "unset keys keep defaults")
}

// TestNewConfigFromFileLevelName accepts level names as well as numbers
func TestNewConfigFromFileLevelName(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "named.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0644))
	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, cfg.Level)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[log]\nlevel = \"loud\"\n"), 0644))
	_, err = NewConfigFromFile(bad)
	assert.Error(t, err)
}

// TestNewConfigFromFileMissing falls back to defaults
func TestNewConfigFromFileMissing(t *testing.T) {
	cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

// TestNewConfigFromDefaults applies typed overrides
func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"level":       LevelDebug,
		"enable_file": true,
		"max_size_mb": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.True(t, cfg.EnableFile)
	assert.Equal(t, int64(3), cfg.MaxSizeMB)

	_, err = NewConfigFromDefaults(map[string]any{"level": "loud"})
	assert.Error(t, err)
}

// TestParseLevel covers names and aliases
func TestParseLevel(t *testing.T) {
	for in, want := range map[string]int64{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"proc":    LevelProc,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

// TestConfigFilePath joins directory, name and extension
func TestConfigFilePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Directory = "/var/log"
	assert.Equal(t, filepath.Join("/var/log", "ccerve.log"), cfg.FilePath())

	cfg.Extension = ""
	assert.Equal(t, filepath.Join("/var/log", "ccerve"), cfg.FilePath())
}

// TestBuilder verifies values and deferred errors
func TestBuilder(t *testing.T) {
	cfg, err := NewBuilder().
		LevelString("debug").
		Name("built").
		Color(ColorNever).
		MaxSizeMB(10).
		Compress(true).
		Config()
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, "built", cfg.Name)
	assert.True(t, cfg.Compress)

	_, err = NewBuilder().LevelString("shouting").Name("ignored").Build()
	assert.Error(t, err)
}
