package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
watchlist:
  - { symbol: AAPL, exchange: us }
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Strategy.AvgWindow)
	assert.Equal(t, 0.03, cfg.Strategy.StopPct)
	assert.Equal(t, 5, cfg.Strategy.MaxOpenPositions)
	assert.Equal(t, 4, cfg.Strategy.MaxTradesPerCycle)
	assert.Equal(t, 240*time.Second, cfg.Interval())
	assert.Equal(t, 30*time.Second, cfg.ErrorBackoff())
	assert.Equal(t, "SPY", cfg.Regime.IndexSymbol)
	assert.Equal(t, 60, cfg.Regime.HistoryDays)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
strategy:
  lookback_days: 20
  avg_window: 7
  stop_pct: 0.05
  take_profit_pct: 0.04
  risk_fraction: 0.02
  max_open_positions: 3
  max_trades_per_cycle: 2
loop:
  interval_seconds: 60
watchlist:
  - { symbol: MSFT, exchange: us }
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Strategy.AvgWindow)
	assert.Equal(t, 0.05, cfg.Strategy.StopPct)
	assert.Equal(t, 2, cfg.Strategy.MaxTradesPerCycle)
	assert.Equal(t, time.Minute, cfg.Interval())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero avg window", func(c *Config) { c.Strategy.AvgWindow = 0 }},
		{"lookback shorter than window", func(c *Config) { c.Strategy.LookbackDays = 3 }},
		{"stop pct of one", func(c *Config) { c.Strategy.StopPct = 1 }},
		{"negative take profit", func(c *Config) { c.Strategy.TakeProfitPct = -0.01 }},
		{"risk fraction of one", func(c *Config) { c.Strategy.RiskFraction = 1 }},
		{"zero max positions", func(c *Config) { c.Strategy.MaxOpenPositions = 0 }},
		{"zero max trades", func(c *Config) { c.Strategy.MaxTradesPerCycle = 0 }},
		{"zero interval", func(c *Config) { c.Loop.IntervalSeconds = 0 }},
		{"long window not above short", func(c *Config) { c.Regime.LongWindow = c.Regime.ShortWindow }},
		{"history cannot cover long window", func(c *Config) { c.Regime.HistoryDays = 40 }},
		{"zero history days", func(c *Config) { c.Regime.HistoryDays = 0 }},
		{"empty symbol", func(c *Config) { c.Watchlist = []WatchlistEntry{{Symbol: "", Exchange: "us"}} }},
		{"unknown exchange group", func(c *Config) { c.Watchlist = []WatchlistEntry{{Symbol: "AAPL", Exchange: "mars"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Watchlist = []WatchlistEntry{{Symbol: "AAPL", Exchange: "us"}}
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDedupedWatchlist(t *testing.T) {
	cfg := Default()
	cfg.Watchlist = []WatchlistEntry{
		{Symbol: "AAPL", Exchange: "us"},
		{Symbol: "MSFT", Exchange: "us"},
		{Symbol: "AAPL", Exchange: "us"}, // duplicate, dropped
		{Symbol: "SAP.DE", Exchange: "eu"},
	}

	deduped := cfg.DedupedWatchlist()
	require.Len(t, deduped, 3)
	assert.Equal(t, "AAPL", deduped[0].Symbol)
	assert.Equal(t, "MSFT", deduped[1].Symbol)
	assert.Equal(t, "SAP.DE", deduped[2].Symbol)
}

// Suffixed listings of the same company trade as distinct tickers, so
// ASML (Nasdaq) and ASML.AS (Amsterdam) must both survive dedup.
func TestDedupedWatchlistKeepsCrossListings(t *testing.T) {
	cfg := Default()
	cfg.Watchlist = []WatchlistEntry{
		{Symbol: "ASML", Exchange: "us"},
		{Symbol: "ASML.AS", Exchange: "eu"},
	}

	deduped := cfg.DedupedWatchlist()
	require.Len(t, deduped, 2)
	assert.Equal(t, "ASML", deduped[0].Symbol)
	assert.Equal(t, "ASML.AS", deduped[1].Symbol)
}
