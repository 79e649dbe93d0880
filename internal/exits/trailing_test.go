package exits

import (
	"math"
	"testing"

	"github.com/quietmarkets/equityrun/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrailingRatchetAndHold(t *testing.T) {
	store := NewTrailingStore(TrailingConfig{StopPct: 0.03, TakeProfitPct: 0.50})
	sym := domain.Symbol("AAPL")

	// Entry 100, closes 100 -> 105 -> 103: high 105, stop 101.85,
	// close 103 above stop means hold.
	out := store.Observe(sym, 100, 100)
	if out.Decision != domain.Hold {
		t.Fatalf("expected hold on first observation, got %s", out.Decision)
	}
	if !almostEqual(out.State.StopPrice, 97.0) {
		t.Errorf("initial stop = %v, want 97.00", out.State.StopPrice)
	}

	out = store.Observe(sym, 100, 105)
	if !almostEqual(out.State.HighestPrice, 105) || !almostEqual(out.State.StopPrice, 101.85) {
		t.Errorf("after new high: high=%v stop=%v, want 105/101.85", out.State.HighestPrice, out.State.StopPrice)
	}

	out = store.Observe(sym, 100, 103)
	if out.Decision != domain.Hold {
		t.Fatalf("close 103 > stop 101.85 should hold, got %s", out.Decision)
	}
	if !almostEqual(out.State.HighestPrice, 105) || !almostEqual(out.State.StopPrice, 101.85) {
		t.Errorf("pullback must not move high or stop: high=%v stop=%v", out.State.HighestPrice, out.State.StopPrice)
	}
}

func TestTrailingStopNeverDecreases(t *testing.T) {
	store := NewTrailingStore(TrailingConfig{StopPct: 0.03, TakeProfitPct: 10})
	sym := domain.Symbol("MSFT")

	lastStop := 0.0
	for _, close := range []float64{200, 210, 208, 208, 207, 215, 214} {
		out := store.Observe(sym, 200, close)
		if out.Decision != domain.Hold {
			t.Fatalf("unexpected %s at close %v", out.Decision, close)
		}
		if out.State.StopPrice < lastStop {
			t.Fatalf("stop decreased from %v to %v at close %v", lastStop, out.State.StopPrice, close)
		}
		lastStop = out.State.StopPrice
	}
}

func TestStopOutBoundaryInclusive(t *testing.T) {
	store := NewTrailingStore(TrailingConfig{StopPct: 0.03, TakeProfitPct: 10})
	sym := domain.Symbol("NVDA")

	store.Observe(sym, 100, 100) // stop = 97.00
	out := store.Observe(sym, 100, 97)
	if out.Decision != domain.SellStop {
		t.Fatalf("close == stop must sell, got %s", out.Decision)
	}
	if _, tracked := store.State(sym); tracked {
		t.Error("state must be removed after stop-out")
	}
}

func TestTakeProfit(t *testing.T) {
	store := NewTrailingStore(DefaultTrailingConfig()) // 3% stop, 3% take profit
	sym := domain.Symbol("AMZN")

	out := store.Observe(sym, 100, 103.5)
	if out.Decision != domain.SellTakeProfit {
		t.Fatalf("close 103.5 >= 103 target must take profit, got %s", out.Decision)
	}
	if _, tracked := store.State(sym); tracked {
		t.Error("state must be removed after take-profit")
	}
}

func TestStopOutWinsOverTakeProfit(t *testing.T) {
	store := NewTrailingStore(DefaultTrailingConfig())
	sym := domain.Symbol("TSLA")

	// Run the high up so the stop sits above the take-profit target,
	// then drop to a close satisfying both conditions at once.
	store.Observe(sym, 100, 110) // stop = 106.7, target = 103
	out := store.Observe(sym, 100, 104)
	if out.Decision != domain.SellStop {
		t.Fatalf("stop-out must win when both conditions hold, got %s", out.Decision)
	}
}

func TestPerSymbolIndependence(t *testing.T) {
	store := NewTrailingStore(TrailingConfig{StopPct: 0.03, TakeProfitPct: 10})

	store.Observe("AAPL", 100, 100)
	store.Observe("MSFT", 200, 220)

	out := store.Observe("AAPL", 100, 96)
	if out.Decision != domain.SellStop {
		t.Fatalf("expected AAPL stop-out, got %s", out.Decision)
	}

	st, tracked := store.State("MSFT")
	if !tracked {
		t.Fatal("MSFT must still be tracked")
	}
	if !almostEqual(st.HighestPrice, 220) {
		t.Errorf("MSFT high = %v, want 220", st.HighestPrice)
	}
	if store.Len() != 1 {
		t.Errorf("store len = %d, want 1", store.Len())
	}
}

func TestDropAndSymbols(t *testing.T) {
	store := NewTrailingStore(DefaultTrailingConfig())
	store.Observe("AAPL", 100, 100)
	store.Observe("MSFT", 200, 200)

	if got := len(store.Symbols()); got != 2 {
		t.Fatalf("Symbols() len = %d, want 2", got)
	}

	store.Drop("AAPL")
	if _, tracked := store.State("AAPL"); tracked {
		t.Error("dropped symbol must be untracked")
	}
	if store.Len() != 1 {
		t.Errorf("store len = %d, want 1", store.Len())
	}
}
