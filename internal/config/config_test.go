package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10000", cfg.Backtest.InitialBalance)
	assert.Equal(t, "0.001", cfg.Backtest.FeeRate)
	assert.Equal(t, 50, cfg.Backtest.Warmup)
	assert.Equal(t, 100, cfg.Backtest.CancelCheckEvery)
	assert.Equal(t, 2, cfg.Backtest.MaxConcurrent)
	assert.False(t, cfg.Backtest.Progress)
	assert.Equal(t, "sessions.db", cfg.Sessions.Path)
	assert.Equal(t, 24*time.Hour, cfg.Redis.StatusTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.URL)

	rc := cfg.RunConfig()
	assert.Equal(t, "10000", rc.InitialBalance().String())
	assert.Equal(t, "0.001", rc.FeeRate().String())
	assert.Equal(t, 50, rc.Warmup())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/candles
backtest:
  initial_balance: "2500.5"
  fee_rate: "0"
  warmup: 10
  max_concurrent: 4
redis:
  addr: localhost:6379
  status_ttl: 90m
log:
  level: debug
`)
	t.Setenv("FXBOT_DATABASE_URL", "postgres://db/override")
	t.Setenv("FXBOT_BACKTEST_WARMUP", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/override", cfg.Database.URL)
	assert.Equal(t, 0, cfg.Backtest.Warmup)
	assert.Equal(t, 4, cfg.Backtest.MaxConcurrent)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 90*time.Minute, cfg.Redis.StatusTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	rc := cfg.RunConfig()
	assert.Equal(t, "2500.5", rc.InitialBalance().String())
	assert.True(t, rc.FeeRate().IsZero())
	assert.Equal(t, 0, rc.Warmup())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "backtest:\n  fee_rate: cheap\n"))
	assert.ErrorContains(t, err, "backtest.fee_rate")

	_, err = Load(writeConfig(t, "backtest:\n  max_concurrent: 0\n"))
	assert.ErrorContains(t, err, "max_concurrent")

	_, err = Load(writeConfig(t, "backtest: [unclosed\n"))
	assert.Error(t, err)
}
