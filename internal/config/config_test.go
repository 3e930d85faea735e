package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  log_level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":8900", cfg.App.HTTPAddr)
	assert.Equal(t, 15, cfg.Exchange.HTTPTimeoutSeconds)
	assert.Equal(t, "user_data/prowl.db", cfg.Store.TradingDB)

	s := cfg.Strategy
	assert.Equal(t, "Default", s.Name)
	assert.Equal(t, 0.6, s.ScoreThreshold)
	assert.Equal(t, 5, s.TopN)
	assert.Equal(t, "15m", s.Timeframe)
	assert.Equal(t, 150, s.MinCandles)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "OPUSDT"}, s.FallbackPairs)
	assert.Equal(t, 0.02, s.TPOffset)
	assert.Equal(t, 0.005, s.TrailStep)
	assert.Equal(t, 0.01, s.StopPercent)
	assert.Equal(t, 600, s.MaxDurationSeconds)
	assert.Equal(t, 0.5, s.TimeoutScoreFactor)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
strategy:
  score_threshold: 0.75
  top_n: 3
  tp_offset: 0.03
  trail_step: 0.01
  fallback_pairs: [SOLUSDT]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Strategy.ScoreThreshold)
	assert.Equal(t, 3, cfg.Strategy.TopN)
	assert.Equal(t, 0.03, cfg.Strategy.TPOffset)
	assert.Equal(t, []string{"SOLUSDT"}, cfg.Strategy.FallbackPairs)
}

func TestLoadValidation(t *testing.T) {
	t.Run("trail step must stay below tp offset", func(t *testing.T) {
		path := writeConfig(t, "strategy:\n  tp_offset: 0.01\n  trail_step: 0.02\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("score threshold below one", func(t *testing.T) {
		path := writeConfig(t, "strategy:\n  score_threshold: 1.5\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("tier boundaries ascending", func(t *testing.T) {
		path := writeConfig(t, "strategy:\n  tier_low: 0.9\n  tier_mid: 0.8\n  tier_high: 0.7\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("candle limit covers min candles", func(t *testing.T) {
		path := writeConfig(t, "strategy:\n  candle_limit: 150\n  min_candles: 180\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("min candles covers the long average", func(t *testing.T) {
		path := writeConfig(t, "strategy:\n  min_candles: 100\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	s := StrategyConfig{PollIntervalSeconds: 2.5, ErrorBackoffSeconds: 5, MaxDurationSeconds: 600, LoopIntervalSeconds: 15}
	assert.Equal(t, 2500, int(s.PollInterval().Milliseconds()))
	assert.Equal(t, 5000, int(s.ErrorBackoff().Milliseconds()))
	assert.Equal(t, 600000, int(s.MaxDuration().Milliseconds()))
	assert.Equal(t, 15000, int(s.LoopInterval().Milliseconds()))
}
