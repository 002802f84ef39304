package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/ccerve/log"
)

func TestCLIArgs(t *testing.T) {
	registered := map[string]bool{"server.port": true, "server.host": true, "log.level": true}

	args, err := cliArgs([]string{"server.port=9000", "--log.level=debug"}, registered)
	require.NoError(t, err)
	assert.Equal(t, []string{"--server.port=9000", "--log.level=debug"}, args)

	args, err = cliArgs([]string{"0.0.0.0", "8080"}, registered)
	require.NoError(t, err)
	assert.Equal(t, []string{"--server.host=0.0.0.0", "--server.port=8080"}, args)

	for _, bad := range [][]string{
		{"localhost", "8080"},
		{"127.0.0.1", "99999"},
		{"port=80"},
		{"db.host=x"},
		{"server.workers"},
	} {
		_, err := cliArgs(bad, registered)
		assert.Error(t, err, "%v", bad)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccerve.toml")
	content := `
[log]
level = 4
enable_console = false

[server]
port = 8181
workers = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	logCfg, srvCfg, err := loadConfig(path, []string{"server.workers=5", "log.name=cli", "log.color=never"})
	require.NoError(t, err)

	assert.Equal(t, log.LevelWarn, logCfg.Level)
	assert.Equal(t, log.ColorNever, logCfg.Color)
	assert.False(t, logCfg.EnableConsole)
	assert.Equal(t, "cli", logCfg.Name)
	assert.Equal(t, int64(8181), srvCfg.Port)
	assert.Equal(t, int64(5), srvCfg.Workers, "command line wins over file")
}

func TestLoadConfigEnvAndLevelNames(t *testing.T) {
	t.Setenv("CCERVE_SERVER_PORT", "8282")
	t.Setenv("CCERVE_LOG_ENABLE_CONSOLE", "false")

	path := filepath.Join(t.TempDir(), "ccerve.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"error\"\n"), 0644))

	logCfg, srvCfg, err := loadConfig(path, []string{"log.level=debug"})
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, logCfg.Level, "command line wins over file")
	assert.False(t, logCfg.EnableConsole)
	assert.Equal(t, int64(8282), srvCfg.Port)

	logCfg, _, err = loadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, log.LevelError, logCfg.Level)
}

func TestLoadConfigInvalidOverride(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), []string{"server.workers=0"})
	assert.Error(t, err)
}

func TestRunConfigErrors(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitConfig, run([]string{"-nosuchflag"}, &stderr))

	stderr.Reset()
	code := run([]string{"-config", filepath.Join(t.TempDir(), "none.toml"), "server.overflow_policy=maybe"}, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "overflow_policy")
}
