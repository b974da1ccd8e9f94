package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, ":9090", cfg.MetricsListen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.PollTimeout.Std())
	assert.Equal(t, 5*time.Second, cfg.EvictInterval.Std())
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pushhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9999"
logLevel: debug
pollTimeout: 45s
defaultWatchActive: true
nats:
  url: nats://localhost:4222
  subjectPrefix: og.changes
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.PollTimeout.Std())
	assert.Equal(t, 5*time.Second, cfg.EvictInterval.Std(), "unset keys keep their defaults")
	assert.True(t, cfg.DefaultWatchActive)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "og.changes", cfg.NATS.SubjectPrefix)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [not a string"), 0o600))
	_, err = loadConfig(path)
	require.Error(t, err)

	path = filepath.Join(t.TempDir(), "baddur.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pollTimeout: fast"), 0o600))
	_, err = loadConfig(path)
	require.ErrorContains(t, err, "invalid duration")
}
