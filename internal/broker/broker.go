// Package broker defines the narrow interfaces the trading engine
// consumes from the brokerage and market-data providers, and the error
// taxonomy those providers must speak.
package broker

import (
	"context"
	"time"

	"github.com/quietmarkets/equityrun/internal/domain"
)

// Brokerage is the account and order surface of the external broker.
type Brokerage interface {
	// AccountEquity returns current total account equity.
	AccountEquity(ctx context.Context) (float64, error)

	// OpenPositions returns a snapshot of currently held positions
	// keyed by symbol. No ordering guarantee.
	OpenPositions(ctx context.Context) (map[domain.Symbol]domain.OpenPosition, error)

	// SubmitOrder submits a GTC market order. An *OrderRejectedError
	// means the broker confirmed the rejection; a *TransportError means
	// the outcome is unknown.
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderAck, error)
}

// MarketData is the historical bar surface of the data provider.
type MarketData interface {
	// PriceBars returns daily bars for symbol in [start, end), time
	// ascending. An empty slice means no data and is not an error;
	// transport failures return a *TransportError.
	PriceBars(ctx context.Context, symbol domain.Symbol, start, end time.Time) ([]domain.PriceBar, error)

	// IndexHistory returns the last `days` daily bars for a broad
	// market index, time ascending.
	IndexHistory(ctx context.Context, index domain.Symbol, days int) ([]domain.PriceBar, error)
}
