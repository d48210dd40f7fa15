package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults_When_Missing(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))

	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(8090, cfg.Port)
	req.Equal("ws://localhost:8080/ws", cfg.SignalURL)
	req.Equal("default", cfg.Room)
	req.Equal(int64(32768), cfg.ReadLimit)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(5*time.Second, cfg.WriteWait)
	req.Equal(50, cfg.NotificationsLimit)
	req.Equal(30, cfg.MessageRate)
	req.Empty(cfg.ICEServers)
}

func TestLoadFile_Reads_YAML(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, `
mode: debug
port: 9100
room: standup
ping_period: 10s
ice_servers:
  - urls: ["turn:turn.example.org:3478"]
    username: bob
    credential: secret
`)

	cfg, err := LoadFile(path)

	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal(9100, cfg.Port)
	req.Equal("standup", cfg.Room)
	req.Equal(10*time.Second, cfg.PingPeriod)
	req.Len(cfg.ICEServers, 1)
	req.Equal([]string{"turn:turn.example.org:3478"}, cfg.ICEServers[0].URLs)
	req.Equal("bob", cfg.ICEServers[0].Username)
	req.Equal("secret", cfg.ICEServers[0].Credential)
}

func TestLoadFile_Env_Overrides(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, "port: 9100\nroom: standup\n")
	t.Setenv("PEERCALLS_PORT", "9200")
	t.Setenv("PEERCALLS_ROOM", "retro")

	cfg, err := LoadFile(path)

	req.NoError(err)
	req.Equal(9200, cfg.Port)
	req.Equal("retro", cfg.Room)
}

func TestLoad_Uses_Config_Env(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "config", "config.staging.yaml"), []byte("port: 7000\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "staging")

	cfg, err := Load()

	req.NoError(err)
	req.Equal(7000, cfg.Port)
}
