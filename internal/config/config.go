// Package config loads and validates the trading loop configuration
// from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/quietmarkets/equityrun/internal/domain"
)

// WatchlistEntry is one symbol under evaluation, with its exchange
// group for the trading-hours lookup.
type WatchlistEntry struct {
	Symbol   string `yaml:"symbol"`
	Exchange string `yaml:"exchange"` // calendar group, e.g. "us" or "eu"
}

// StrategyConfig holds the entry and sizing parameters.
type StrategyConfig struct {
	LookbackDays      int     `yaml:"lookback_days"`        // calendar days of bars fetched per symbol
	AvgWindow         int     `yaml:"avg_window"`           // closes in the breakout mean
	StopPct           float64 `yaml:"stop_pct"`             // trailing stop distance
	TakeProfitPct     float64 `yaml:"take_profit_pct"`      // gain over entry that takes profit
	RiskFraction      float64 `yaml:"risk_fraction"`        // equity fraction risked per trade
	MaxOpenPositions  int     `yaml:"max_open_positions"`   // refuse new entries at this many holdings
	MaxTradesPerCycle int     `yaml:"max_trades_per_cycle"` // stop evaluating once this many buys submitted
}

// LoopConfig holds the cycle cadence.
type LoopConfig struct {
	IntervalSeconds     int `yaml:"interval_seconds"`      // sleep between cycles
	ErrorBackoffSeconds int `yaml:"error_backoff_seconds"` // sleep after a failed cycle
}

// RegimeConfig holds the market regime filter parameters.
type RegimeConfig struct {
	IndexSymbol string `yaml:"index_symbol"`
	HistoryDays int    `yaml:"history_days"`
	ShortWindow int    `yaml:"short_window"`
	LongWindow  int    `yaml:"long_window"`
}

// ServerConfig holds the read-only health/metrics HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config is the full loaded configuration.
type Config struct {
	Strategy  StrategyConfig       `yaml:"strategy"`
	Loop      LoopConfig           `yaml:"loop"`
	Regime    RegimeConfig         `yaml:"regime"`
	Calendar  map[string][2]string `yaml:"calendar"` // group -> [open, close] UTC
	Watchlist []WatchlistEntry     `yaml:"watchlist"`
	Server    ServerConfig         `yaml:"server"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Strategy: StrategyConfig{
			LookbackDays:      10,
			AvgWindow:         5,
			StopPct:           0.03,
			TakeProfitPct:     0.03,
			RiskFraction:      0.01,
			MaxOpenPositions:  5,
			MaxTradesPerCycle: 4,
		},
		Loop: LoopConfig{
			IntervalSeconds:     240,
			ErrorBackoffSeconds: 30,
		},
		Regime: RegimeConfig{
			IndexSymbol: "SPY",
			HistoryDays: 60,
			ShortWindow: 10,
			LongWindow:  30,
		},
		Calendar: map[string][2]string{
			"us": {"14:30", "21:00"},
			"eu": {"08:00", "16:30"},
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
	}
}

// Load reads a YAML config file, fills in defaults for omitted fields,
// and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks parameter sanity.
func (c Config) Validate() error {
	s := c.Strategy
	if s.AvgWindow <= 0 {
		return fmt.Errorf("strategy.avg_window must be positive, got %d", s.AvgWindow)
	}
	if s.LookbackDays < s.AvgWindow {
		return fmt.Errorf("strategy.lookback_days %d must cover avg_window %d", s.LookbackDays, s.AvgWindow)
	}
	if s.StopPct <= 0 || s.StopPct >= 1 {
		return fmt.Errorf("strategy.stop_pct must be in (0, 1), got %v", s.StopPct)
	}
	if s.TakeProfitPct <= 0 {
		return fmt.Errorf("strategy.take_profit_pct must be positive, got %v", s.TakeProfitPct)
	}
	if s.RiskFraction <= 0 || s.RiskFraction >= 1 {
		return fmt.Errorf("strategy.risk_fraction must be in (0, 1), got %v", s.RiskFraction)
	}
	if s.MaxOpenPositions <= 0 {
		return fmt.Errorf("strategy.max_open_positions must be positive, got %d", s.MaxOpenPositions)
	}
	if s.MaxTradesPerCycle <= 0 {
		return fmt.Errorf("strategy.max_trades_per_cycle must be positive, got %d", s.MaxTradesPerCycle)
	}
	if c.Loop.IntervalSeconds <= 0 {
		return fmt.Errorf("loop.interval_seconds must be positive, got %d", c.Loop.IntervalSeconds)
	}
	if c.Regime.ShortWindow <= 0 || c.Regime.LongWindow <= c.Regime.ShortWindow {
		return fmt.Errorf("regime windows must satisfy 0 < short_window < long_window, got %d/%d",
			c.Regime.ShortWindow, c.Regime.LongWindow)
	}
	// Daily bars arrive only on trading days, about 5 per 7 calendar
	// days. A history window that cannot cover long_window trading days
	// would leave the filter failing open on every cycle.
	if c.Regime.HistoryDays*5 < c.Regime.LongWindow*7 {
		return fmt.Errorf("regime.history_days %d cannot cover long_window %d trading days, need at least %d",
			c.Regime.HistoryDays, c.Regime.LongWindow, (c.Regime.LongWindow*7+4)/5)
	}
	for i, entry := range c.Watchlist {
		if entry.Symbol == "" {
			return fmt.Errorf("watchlist[%d]: symbol must not be empty", i)
		}
		if _, ok := c.Calendar[entry.Exchange]; !ok {
			return fmt.Errorf("watchlist[%d] %s: unknown exchange group %q", i, entry.Symbol, entry.Exchange)
		}
	}
	return nil
}

// Interval returns the cycle interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Loop.IntervalSeconds) * time.Second
}

// ErrorBackoff returns the failed-cycle backoff as a duration.
func (c Config) ErrorBackoff() time.Duration {
	return time.Duration(c.Loop.ErrorBackoffSeconds) * time.Second
}

// DedupedWatchlist returns the watchlist with duplicate symbols
// removed, keeping the first occurrence. Duplicates are logged: a
// symbol must not be evaluated twice within one cycle.
func (c Config) DedupedWatchlist() []WatchlistEntry {
	seen := make(map[domain.Symbol]bool, len(c.Watchlist))
	out := make([]WatchlistEntry, 0, len(c.Watchlist))
	for _, entry := range c.Watchlist {
		sym := domain.Symbol(entry.Symbol)
		if seen[sym] {
			log.Warn().Str("symbol", entry.Symbol).Msg("duplicate watchlist entry dropped")
			continue
		}
		seen[sym] = true
		out = append(out, entry)
	}
	return out
}
