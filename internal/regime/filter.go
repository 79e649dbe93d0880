// Package regime classifies the broad market as bullish or bearish from
// two trailing averages of an index's daily closes.
package regime

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/quietmarkets/equityrun/internal/broker"
	"github.com/quietmarkets/equityrun/internal/domain"
	"github.com/quietmarkets/equityrun/internal/signal"
)

// FilterConfig holds the regime filter thresholds.
type FilterConfig struct {
	IndexSymbol string `yaml:"index_symbol"` // broad index ticker, e.g. SPY
	HistoryDays int    `yaml:"history_days"` // calendar days of history to fetch
	ShortWindow int    `yaml:"short_window"` // trailing closes for the short mean
	LongWindow  int    `yaml:"long_window"`  // trailing closes for the long mean
}

// DefaultFilterConfig returns the production regime filter settings.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		IndexSymbol: "SPY",
		// Calendar days, not trading days: weekends and holidays thin a
		// daily-bar fetch to roughly 5 bars per 7 days, so the window
		// must comfortably exceed LongWindow*7/5 to keep the filter
		// computable.
		HistoryDays: 60,
		ShortWindow: 10,
		LongWindow:  30,
	}
}

// Filter computes the bull/bear regime flag once per cycle.
type Filter struct {
	config FilterConfig
	data   broker.MarketData
}

// NewFilter creates a regime filter backed by the given index data
// source.
func NewFilter(data broker.MarketData, config FilterConfig) *Filter {
	return &Filter{config: config, data: data}
}

// IsBullish reports whether the short trailing mean of the index is
// above the long trailing mean.
//
// Fail-open: if the index data source is unavailable or returns fewer
// closes than the long window, the filter returns true rather than
// blocking all new entries. A missing market signal must not halt the
// strategy; the per-symbol breakout gate still applies.
func (f *Filter) IsBullish(ctx context.Context) bool {
	bars, err := f.data.IndexHistory(ctx, domain.Symbol(f.config.IndexSymbol), f.config.HistoryDays)
	if err != nil {
		log.Warn().Err(err).Str("index", f.config.IndexSymbol).
			Msg("index history unavailable, regime filter failing open")
		return true
	}
	if len(bars) < f.config.LongWindow {
		log.Warn().Int("bars", len(bars)).Int("need", f.config.LongWindow).
			Str("index", f.config.IndexSymbol).
			Msg("insufficient index history, regime filter failing open")
		return true
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	shortMean := signal.SMA(closes, f.config.ShortWindow)
	longMean := signal.SMA(closes, f.config.LongWindow)
	return shortMean > longMean
}
