package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/betbot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "agent:\n  mode: test\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ModeTest, cfg.Agent.Mode)
	assert.Equal(t, 60*time.Second, cfg.LoopInterval())
	assert.Equal(t, time.Hour, cfg.ResearchInterval())
	assert.InDelta(t, 1000, cfg.Betting.Bankroll, 1e-9)
	assert.InDelta(t, 10, cfg.Betting.MinBet, 1e-9)
	assert.InDelta(t, 100, cfg.Betting.MaxBet, 1e-9)
	assert.InDelta(t, 0.05, cfg.Betting.MinEdgeThreshold, 1e-9)
	assert.InDelta(t, 0.25, cfg.Betting.MaxKellyFraction, 1e-9)
	assert.InDelta(t, 100, cfg.Risk.DailyLossLimit, 1e-9)
	assert.Equal(t, 5, cfg.Risk.DailyBetLimit)
	assert.False(t, cfg.IsLive())
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
agent:
  mode: simulation
  research_interval_seconds: 1800
betting:
  bankroll: 5000
  min_edge_threshold: 0.08
risk:
  daily_bet_limit: 10
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ModeSimulation, cfg.Agent.Mode)
	assert.Equal(t, 30*time.Minute, cfg.ResearchInterval())
	assert.InDelta(t, 5000, cfg.Betting.Bankroll, 1e-9)
	assert.InDelta(t, 0.08, cfg.Betting.MinEdgeThreshold, 1e-9)
	assert.Equal(t, 10, cfg.Risk.DailyBetLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BETBOT_MODE", "simulation")
	t.Setenv("MODEL_API_KEY", "mk-123")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, "agent:\n  mode: test\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ModeSimulation, cfg.Agent.Mode)
	assert.Equal(t, "mk-123", cfg.API.ModelAPIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	path := writeConfig(t, "agent:\n  mode: yolo\n")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvertedBetBounds(t *testing.T) {
	path := writeConfig(t, `
betting:
  min_bet: 200
  max_bet: 100
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_LiveRequiresExchangeKey(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "")
	path := writeConfig(t, "agent:\n  mode: live\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXCHANGE_API_KEY")

	t.Setenv("EXCHANGE_API_KEY", "ek-123")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsLive())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
