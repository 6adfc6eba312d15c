package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals() {
	cfg = nil
	v = nil
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
game:
  default_clock_ms: 600000
  max_sessions: 16
  enforce_king_safety: true
server:
  grpc_server:
    port: 8080
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	resetGlobals()
	require.NoError(t, Init(configFile))

	c := Get()
	assert.Equal(t, uint32(600000), c.Game.DefaultClockMs)
	assert.Equal(t, 16, c.Game.MaxSessions)
	assert.True(t, c.Game.EnforceKingSafety)
	assert.Equal(t, 8080, c.Server.GRPCServer.Port)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, "json", c.Logging.Format)
	assert.Equal(t, configFile, ConfigFilePath())

	// untouched keys keep their defaults
	assert.Equal(t, 300, c.Server.GRPCServer.IdempotencyTTLSec)
	assert.Equal(t, 3600, c.Game.SessionIdleTimeoutSec)
}

func TestInitWithDefaults(t *testing.T) {
	resetGlobals()

	require.NoError(t, Init("/non/existent/path/config.yaml"))

	c := Get()
	require.NotNil(t, c)
	assert.Equal(t, uint32(5400000), c.Game.DefaultClockMs)
	assert.Equal(t, 50051, c.Server.GRPCServer.Port)
	assert.Equal(t, "console", c.Logging.Format)
	assert.Empty(t, c.Logging.File.Path)

	clock := c.DefaultClock()
	require.NotNil(t, clock)
	assert.Equal(t, uint32(5400000), *clock)
}

func TestEnvironmentVariables(t *testing.T) {
	resetGlobals()

	t.Setenv("CHESS_GAME_MAX_SESSIONS", "3")
	t.Setenv("CHESS_SERVER_GRPC_SERVER_PORT", "9090")

	require.NoError(t, Init(""))

	c := Get()
	assert.Equal(t, 3, c.Game.MaxSessions)
	assert.Equal(t, 9090, c.Server.GRPCServer.Port)
}

func TestSet(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))

	require.NoError(t, Set("game.untimed", true))
	require.NoError(t, Set("game.max_sessions", 2))

	c := Get()
	assert.True(t, c.Game.Untimed)
	assert.Nil(t, c.DefaultClock())
	assert.Equal(t, 2, c.Game.MaxSessions)
}

func TestGetHelpers(t *testing.T) {
	resetGlobals()
	require.NoError(t, Init(""))

	require.NoError(t, Set("test.string", "hello"))
	require.NoError(t, Set("test.int", 42))
	require.NoError(t, Set("test.bool", true))

	assert.Equal(t, "hello", GetString("test.string"))
	assert.Equal(t, 42, GetInt("test.int"))
	assert.Equal(t, true, GetBool("test.bool"))
	assert.Equal(t, "info", GetString("logging.level"))
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := t.TempDir()

	baseConfig := filepath.Join(tmpDir, "config.yaml")
	baseContent := `
game:
  max_sessions: 10
server:
  grpc_server:
    port: 50051
`
	require.NoError(t, os.WriteFile(baseConfig, []byte(baseContent), 0644))

	envConfig := filepath.Join(tmpDir, "config.prod.yaml")
	envContent := `
game:
  max_sessions: 500
server:
  grpc_server:
    port: 8080
    log_level: "error"
`
	require.NoError(t, os.WriteFile(envConfig, []byte(envContent), 0644))

	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() { _ = os.Chdir(oldWd) }()

	resetGlobals()
	require.NoError(t, Init(baseConfig))
	require.NoError(t, LoadEnvironmentConfig("prod"))

	c := Get()
	assert.Equal(t, 500, c.Game.MaxSessions)
	assert.Equal(t, 8080, c.Server.GRPCServer.Port)
	assert.Equal(t, "error", c.Server.GRPCServer.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		resetGlobals()
		require.NoError(t, Init(""))
		c := *Get()
		return &c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"zero clock", func(c *Config) { c.Game.DefaultClockMs = 0 }, "default_clock_ms"},
		{"zero clock untimed", func(c *Config) { c.Game.DefaultClockMs = 0; c.Game.Untimed = true }, ""},
		{"no sessions", func(c *Config) { c.Game.MaxSessions = 0 }, "max_sessions"},
		{"bad port", func(c *Config) { c.Server.GRPCServer.Port = 70000 }, "port"},
		{"bad ttl", func(c *Config) { c.Server.GRPCServer.IdempotencyTTLSec = 0 }, "idempotency_ttl_sec"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"file without size", func(c *Config) { c.Logging.File.Path = "x.log"; c.Logging.File.MaxSizeMB = 0 }, "max_size_mb"},
		{"monitor interval", func(c *Config) { c.Monitoring.IntervalSec = 0 }, "interval_sec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
