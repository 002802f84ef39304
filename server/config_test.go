package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, int64(30760), cfg.MaxRequestBytes)
	assert.Equal(t, int64(0), cfg.QueueCapacity)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port range", func(c *Config) { c.Port = 70000 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"negative capacity", func(c *Config) { c.QueueCapacity = -1 }},
		{"bad policy", func(c *Config) { c.OverflowPolicy = "explode" }},
		{"zero read timeout", func(c *Config) { c.ReadTimeoutMs = 0 }},
		{"tiny request limit", func(c *Config) { c.MaxRequestBytes = 10 }},
		{"empty root", func(c *Config) { c.Root = "" }},
		{"index with path", func(c *Config) { c.Index = "../secret.html" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyOverride(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyOverride("port=9090", "workers=3", "overflow_policy=drop_oldest", "root=/srv/www"))
	assert.Equal(t, int64(9090), cfg.Port)
	assert.Equal(t, int64(3), cfg.Workers)
	assert.Equal(t, string(PolicyDropOldest), cfg.OverflowPolicy)
	assert.Equal(t, "/srv/www", cfg.Root)

	err := cfg.ApplyOverride("port=http", "colour=blue", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid integer value for port")
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccerve.toml")
	content := `
[server]
host = "0.0.0.0"
port = 8443
workers = 16
overflow_policy = "block"
queue_capacity = 128
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8443", cfg.Addr())
	assert.Equal(t, int64(16), cfg.Workers)
	assert.Equal(t, string(PolicyBlock), cfg.OverflowPolicy)
	assert.Equal(t, int64(128), cfg.QueueCapacity)
	assert.Equal(t, "index.html", cfg.Index, "unset keys keep defaults")
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigFromSharedLoader(t *testing.T) {
	loader := config.New()
	require.NoError(t, RegisterConfig(loader, "server."))

	cfg, err := ConfigFromLoader(loader, "server.")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
