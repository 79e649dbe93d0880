// Package exits manages per-symbol trailing-stop state and evaluates
// the two exit conditions for open positions: trailing stop-out and
// fixed take-profit.
package exits

import (
	"fmt"

	"github.com/quietmarkets/equityrun/internal/domain"
)

// TrailingState tracks the running high and derived stop price for one
// symbol while its position remains open.
type TrailingState struct {
	Symbol       domain.Symbol `json:"symbol"`
	HighestPrice float64       `json:"highest_price"`
	StopPrice    float64       `json:"stop_price"`
}

// Outcome is the result of one trailing evaluation.
type Outcome struct {
	Decision    domain.Decision
	State       TrailingState
	TriggeredBy string // set for sell decisions
}

// TrailingConfig holds the exit thresholds.
type TrailingConfig struct {
	StopPct       float64 `yaml:"stop_pct"`        // trailing stop distance from the running high
	TakeProfitPct float64 `yaml:"take_profit_pct"` // gain over entry that takes profit
}

// DefaultTrailingConfig returns the production exit thresholds.
func DefaultTrailingConfig() TrailingConfig {
	return TrailingConfig{StopPct: 0.03, TakeProfitPct: 0.03}
}

// TrailingStore owns all TrailingState entries, keyed by symbol, at
// most one per symbol. It is exclusively owned by the engine's cycle
// loop; no locking is needed. State is in-memory only and lost on
// restart.
type TrailingStore struct {
	config TrailingConfig
	states map[domain.Symbol]*TrailingState
}

// NewTrailingStore creates an empty store.
func NewTrailingStore(config TrailingConfig) *TrailingStore {
	return &TrailingStore{
		config: config,
		states: make(map[domain.Symbol]*TrailingState),
	}
}

// Len returns the number of tracked symbols.
func (s *TrailingStore) Len() int { return len(s.states) }

// State returns the tracked state for symbol, or false if untracked.
func (s *TrailingStore) State(symbol domain.Symbol) (TrailingState, bool) {
	st, ok := s.states[symbol]
	if !ok {
		return TrailingState{}, false
	}
	return *st, true
}

// Observe feeds one cycle's closing price for a symbol with an open
// position and returns the resulting decision.
//
// On first observation the symbol enters tracking with
// highestPrice = close and stopPrice = close*(1-stopPct). On later
// observations a new high ratchets both upward; the stop price is a
// function of the running high only, never of the entry price, and
// never decreases while the position is open.
//
// The stop-out check runs first: close <= stopPrice (boundary
// inclusive) sells at the stop. Otherwise close >= entry*(1+tpPct)
// takes profit. Either sell removes the state entry.
func (s *TrailingStore) Observe(symbol domain.Symbol, entryPrice, close float64) Outcome {
	st, ok := s.states[symbol]
	if !ok {
		st = &TrailingState{
			Symbol:       symbol,
			HighestPrice: close,
			StopPrice:    close * (1 - s.config.StopPct),
		}
		s.states[symbol] = st
	} else if close > st.HighestPrice {
		st.HighestPrice = close
		st.StopPrice = close * (1 - s.config.StopPct)
	}

	if close <= st.StopPrice {
		out := Outcome{
			Decision:    domain.SellStop,
			State:       *st,
			TriggeredBy: fmt.Sprintf("close %.2f <= stop %.2f (high %.2f)", close, st.StopPrice, st.HighestPrice),
		}
		delete(s.states, symbol)
		return out
	}

	if close >= entryPrice*(1+s.config.TakeProfitPct) {
		out := Outcome{
			Decision:    domain.SellTakeProfit,
			State:       *st,
			TriggeredBy: fmt.Sprintf("close %.2f >= target %.2f (entry %.2f)", close, entryPrice*(1+s.config.TakeProfitPct), entryPrice),
		}
		delete(s.states, symbol)
		return out
	}

	return Outcome{Decision: domain.Hold, State: *st}
}

// Drop removes tracking for a symbol whose position is gone, e.g. sold
// externally between cycles.
func (s *TrailingStore) Drop(symbol domain.Symbol) {
	delete(s.states, symbol)
}

// Symbols returns the currently tracked symbols in no particular order.
func (s *TrailingStore) Symbols() []domain.Symbol {
	out := make([]domain.Symbol, 0, len(s.states))
	for sym := range s.states {
		out = append(out, sym)
	}
	return out
}
