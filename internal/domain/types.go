package domain

import "time"

// Symbol identifies one tradable instrument by its exchange ticker.
type Symbol string

// PriceBar is a single daily bar; only the close is used by the strategy.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// OpenPosition is the brokerage's view of a held position. The engine
// reads a snapshot once per cycle; it is not authoritative between
// cycles.
type OpenPosition struct {
	Symbol     Symbol  `json:"symbol"`
	EntryPrice float64 `json:"entry_price"`
	Qty        int     `json:"qty"`
}

// Decision is the per-symbol outcome of one cycle evaluation.
type Decision int

const (
	Skip Decision = iota
	Hold
	Buy
	SellStop
	SellTakeProfit
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Hold:
		return "hold"
	case Buy:
		return "buy"
	case SellStop:
		return "sell_stop"
	case SellTakeProfit:
		return "sell_take_profit"
	default:
		return "unknown"
	}
}

// IsSell reports whether the decision closes an open position.
func (d Decision) IsSell() bool {
	return d == SellStop || d == SellTakeProfit
}

// OrderSide is the direction of a market order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderRequest is a market order submission. All orders are GTC market
// orders; limit and multi-leg orders are out of scope.
type OrderRequest struct {
	Symbol Symbol    `json:"symbol"`
	Qty    int       `json:"qty"`
	Side   OrderSide `json:"side"`
}

// OrderAck is the brokerage's acceptance of a submitted order. Fill
// confirmation is not tracked; acceptance is assumed to imply the
// position change until the next cycle's snapshot.
type OrderAck struct {
	OrderID     string    `json:"order_id"`
	Symbol      Symbol    `json:"symbol"`
	SubmittedAt time.Time `json:"submitted_at"`
}
