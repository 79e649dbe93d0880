// Package engine implements the per-cycle trade decision loop: for each
// watchlist symbol it decides whether to open, hold, stop out, take
// profit, or skip, and submits the corresponding orders.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quietmarkets/equityrun/internal/broker"
	"github.com/quietmarkets/equityrun/internal/calendar"
	"github.com/quietmarkets/equityrun/internal/config"
	"github.com/quietmarkets/equityrun/internal/domain"
	"github.com/quietmarkets/equityrun/internal/exits"
	"github.com/quietmarkets/equityrun/internal/metrics"
	"github.com/quietmarkets/equityrun/internal/signal"
	"github.com/quietmarkets/equityrun/internal/sizing"
)

// RegimeFilter gates new entries on broad market trend.
type RegimeFilter interface {
	IsBullish(ctx context.Context) bool
}

// SymbolResult records the decision for one symbol in one cycle.
type SymbolResult struct {
	Symbol   domain.Symbol   `json:"symbol"`
	Decision domain.Decision `json:"decision"`
	Qty      int             `json:"qty,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// CycleReport summarizes one full watchlist pass.
type CycleReport struct {
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	Equity         float64        `json:"equity"`
	Bullish        bool           `json:"bullish"`
	OpenPositions  int            `json:"open_positions"`
	TradesExecuted int            `json:"trades_executed"`
	Results        []SymbolResult `json:"results"`
}

// Deps are the engine's injected collaborators.
type Deps struct {
	Brokerage broker.Brokerage
	Data      broker.MarketData
	Calendar  *calendar.Calendar
	Regime    RegimeFilter
	Trailing  *exits.TrailingStore
	Metrics   *metrics.Registry
	Now       func() time.Time
}

// Engine owns the decision state machine. It is single-threaded: one
// cycle runs to completion before the next starts, and TrailingStore is
// mutated only from within a cycle.
type Engine struct {
	deps      Deps
	strategy  config.StrategyConfig
	watchlist []config.WatchlistEntry
	dryRun    bool
}

// New creates an engine over a deduplicated watchlist.
func New(deps Deps, strategy config.StrategyConfig, watchlist []config.WatchlistEntry) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	return &Engine{deps: deps, strategy: strategy, watchlist: watchlist}
}

// SetDryRun disables order submission; decisions are still computed and
// counted against the per-cycle caps.
func (e *Engine) SetDryRun(dry bool) { e.dryRun = dry }

// RunCycle executes one full watchlist pass. The account snapshot and
// regime flag are fetched once and shared read-only across symbol
// evaluations. Per-symbol data errors are logged and skipped; only
// failures to take the cycle snapshot abort the cycle (the outer
// supervisor backs off and retries).
func (e *Engine) RunCycle(ctx context.Context) (*CycleReport, error) {
	start := e.deps.Now()

	equity, err := e.deps.Brokerage.AccountEquity(ctx)
	if err != nil {
		return nil, err
	}
	positions, err := e.deps.Brokerage.OpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	bullish := e.deps.Regime.IsBullish(ctx)

	// Positions can vanish between cycles (sold externally, or a sell
	// whose outcome was unknown). Tracking state for a symbol with no
	// open position is stale and must not survive into this cycle.
	for _, sym := range e.deps.Trailing.Symbols() {
		if _, held := positions[sym]; !held {
			log.Info().Str("symbol", string(sym)).Msg("position gone, dropping trailing state")
			e.deps.Trailing.Drop(sym)
		}
	}

	report := &CycleReport{
		StartedAt:     start,
		Equity:        equity,
		Bullish:       bullish,
		OpenPositions: len(positions),
	}
	log.Info().Float64("equity", equity).Bool("bullish", bullish).
		Int("open_positions", len(positions)).Msg("cycle snapshot")

	for _, entry := range e.watchlist {
		// Cap reached: stop evaluating the rest of the list.
		if report.TradesExecuted >= e.strategy.MaxTradesPerCycle {
			log.Info().Int("trades", report.TradesExecuted).Msg("trade cap reached, ending cycle early")
			break
		}
		result := e.evaluateSymbol(ctx, entry, equity, bullish, positions, report)
		report.Results = append(report.Results, result)
		e.deps.Metrics.DecisionsTotal.WithLabelValues(result.Decision.String()).Inc()
	}

	report.Duration = e.deps.Now().Sub(start)
	e.deps.Metrics.CyclesTotal.Inc()
	e.deps.Metrics.CycleDuration.Observe(report.Duration.Seconds())
	e.deps.Metrics.AccountEquity.Set(equity)
	e.deps.Metrics.OpenPositions.Set(float64(len(positions)))
	if bullish {
		e.deps.Metrics.RegimeBullish.Set(1)
	} else {
		e.deps.Metrics.RegimeBullish.Set(0)
	}
	return report, nil
}

// evaluateSymbol runs the decision ladder for one symbol. positions is
// the cycle snapshot; a successful sell removes the entry so the open
// count tracks submitted orders within the cycle (optimistic:
// submission acceptance is assumed to imply the position change until
// the next snapshot).
func (e *Engine) evaluateSymbol(ctx context.Context, entry config.WatchlistEntry,
	equity float64, bullish bool, positions map[domain.Symbol]domain.OpenPosition,
	report *CycleReport) SymbolResult {

	sym := domain.Symbol(entry.Symbol)

	if !e.deps.Calendar.IsOpen(entry.Exchange, e.deps.Now()) {
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "market closed"}
	}

	closes, ok := e.fetchCloses(ctx, sym)
	if !ok {
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "no bar data"}
	}
	last := closes[len(closes)-1]

	if pos, held := positions[sym]; held {
		return e.evaluateExit(ctx, sym, pos, last, positions)
	}
	return e.evaluateEntry(ctx, sym, equity, bullish, last, closes, positions, report)
}

// fetchCloses pulls the trailing bar window for a symbol. Empty data
// and transport failures are both data gaps at this level: the symbol
// is skipped, never the cycle.
func (e *Engine) fetchCloses(ctx context.Context, sym domain.Symbol) ([]float64, bool) {
	end := e.deps.Now()
	start := end.AddDate(0, 0, -e.strategy.LookbackDays)

	bars, err := e.deps.Data.PriceBars(ctx, sym, start, end)
	if err != nil {
		log.Warn().Err(err).Str("symbol", string(sym)).Msg("bar fetch failed, skipping symbol")
		e.deps.Metrics.DataGapsTotal.Inc()
		return nil, false
	}
	if len(bars) == 0 {
		log.Info().Str("symbol", string(sym)).Msg("no bars returned, skipping symbol")
		e.deps.Metrics.DataGapsTotal.Inc()
		return nil, false
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes, true
}

// evaluateExit runs the trailing store for a held symbol and submits
// the sell when it stops out or takes profit.
func (e *Engine) evaluateExit(ctx context.Context, sym domain.Symbol,
	pos domain.OpenPosition, last float64,
	positions map[domain.Symbol]domain.OpenPosition) SymbolResult {

	outcome := e.deps.Trailing.Observe(sym, pos.EntryPrice, last)
	if !outcome.Decision.IsSell() {
		return SymbolResult{Symbol: sym, Decision: domain.Hold}
	}

	log.Info().Str("symbol", string(sym)).Str("decision", outcome.Decision.String()).
		Str("trigger", outcome.TriggeredBy).Msg("closing position")

	if e.submit(ctx, domain.OrderRequest{Symbol: sym, Qty: pos.Qty, Side: domain.SideSell}) {
		delete(positions, sym)
	}
	return SymbolResult{Symbol: sym, Decision: outcome.Decision, Qty: pos.Qty, Reason: outcome.TriggeredBy}
}

// evaluateEntry applies the position cap, breakout signal, and regime
// gate, then sizes and submits a buy.
func (e *Engine) evaluateEntry(ctx context.Context, sym domain.Symbol,
	equity float64, bullish bool, last float64, closes []float64,
	positions map[domain.Symbol]domain.OpenPosition, report *CycleReport) SymbolResult {

	if len(positions) >= e.strategy.MaxOpenPositions {
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "position cap reached"}
	}
	if !signal.IsBreakout(closes, e.strategy.AvgWindow) {
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "no breakout"}
	}
	if !bullish {
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "bearish regime"}
	}

	qty, err := sizing.Size(equity, last, e.strategy.RiskFraction, e.strategy.StopPct)
	if err != nil {
		log.Error().Err(err).Str("symbol", string(sym)).Msg("position sizing failed")
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "sizing failed"}
	}

	log.Info().Str("symbol", string(sym)).Int("qty", qty).Float64("price", last).
		Msg("opening position")

	if !e.submit(ctx, domain.OrderRequest{Symbol: sym, Qty: qty, Side: domain.SideBuy}) {
		return SymbolResult{Symbol: sym, Decision: domain.Skip, Reason: "order failed"}
	}
	report.TradesExecuted++
	// Count the accepted buy against the snapshot so later symbols in
	// this cycle see the slot as taken and the position cap holds.
	positions[sym] = domain.OpenPosition{Symbol: sym, EntryPrice: last, Qty: qty}
	return SymbolResult{Symbol: sym, Decision: domain.Buy, Qty: qty}
}

// submit sends one order to the brokerage and reports acceptance.
// Rejections and transport failures are logged and counted; neither
// aborts the cycle. A transport failure leaves the outcome unknown and
// is reconciled by the next cycle's position snapshot.
func (e *Engine) submit(ctx context.Context, req domain.OrderRequest) bool {
	if e.dryRun {
		log.Info().Str("symbol", string(req.Symbol)).Str("side", string(req.Side)).
			Int("qty", req.Qty).Msg("dry run, order not submitted")
		return true
	}

	ack, err := e.deps.Brokerage.SubmitOrder(ctx, req)
	if err != nil {
		kind := "unknown"
		switch {
		case broker.IsOrderRejected(err):
			kind = "rejected"
		case broker.IsTransport(err):
			kind = "transport"
		}
		log.Error().Err(err).Str("symbol", string(req.Symbol)).Str("side", string(req.Side)).
			Str("kind", kind).Msg("order submission failed")
		e.deps.Metrics.OrderFailures.WithLabelValues(kind).Inc()
		return false
	}

	log.Info().Str("symbol", string(req.Symbol)).Str("side", string(req.Side)).
		Int("qty", req.Qty).Str("order_id", ack.OrderID).Msg("order accepted")
	e.deps.Metrics.OrdersTotal.WithLabelValues(string(req.Side)).Inc()
	return true
}
