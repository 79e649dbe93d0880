// Package alpaca adapts the Alpaca trading and market-data APIs to the
// broker interfaces consumed by the engine.
package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/quietmarkets/equityrun/internal/broker"
	"github.com/quietmarkets/equityrun/internal/domain"
)

// Config holds Alpaca connection settings. Credentials come from the
// environment, not the YAML config.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string // paper or live endpoint
	Feed      string // market data feed, e.g. "iex"

	RequestTimeout time.Duration // per-request HTTP timeout
	RateRPS        float64       // outbound requests per second
	RateBurst      int
}

// DefaultConfig returns paper-trading connection defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://paper-api.alpaca.markets",
		Feed:           "iex",
		RequestTimeout: 10 * time.Second,
		RateRPS:        3,
		RateBurst:      5,
	}
}

// Client implements broker.Brokerage and broker.MarketData against
// Alpaca. All outbound calls run through a shared rate limiter and a
// circuit breaker, with an HTTP timeout so a hung call cannot stall a
// cycle indefinitely.
type Client struct {
	trading *alpaca.Client
	md      *marketdata.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	feed    marketdata.Feed
}

// New creates a connected Alpaca client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, &broker.InvalidParameterError{Param: "credentials", Reason: "api key and secret must be set"}
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	return &Client{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:     cfg.APIKey,
			APISecret:  cfg.APISecret,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		}),
		md: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     cfg.APIKey,
			APISecret:  cfg.APISecret,
			HTTPClient: httpClient,
		}),
		breaker: newBreaker(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst),
		feed:    marketdata.Feed(cfg.Feed),
	}, nil
}

// newBreaker trips after five consecutive transport-level failures. A
// confirmed API rejection counts as a successful round trip: the
// brokerage answered, so it says nothing about connectivity and must
// not open the circuit.
func newBreaker() *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: "alpaca"}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	st.IsSuccessful = func(err error) bool {
		var apiErr *alpaca.APIError
		return err == nil || errors.As(err, &apiErr)
	}
	return gobreaker.NewCircuitBreaker(st)
}

// call applies the rate limit and circuit breaker around one outbound
// request.
func (c *Client) call(ctx context.Context, op string, fn func() (any, error)) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &broker.TransportError{Op: op, Err: err}
	}
	out, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &broker.TransportError{Op: op, Err: err}
	}
	return out, err
}

// AccountEquity implements broker.Brokerage.
func (c *Client) AccountEquity(ctx context.Context) (float64, error) {
	out, err := c.call(ctx, "get_account", func() (any, error) {
		return c.trading.GetAccount()
	})
	if err != nil {
		if broker.IsTransport(err) {
			return 0, err
		}
		return 0, &broker.TransportError{Op: "get_account", Err: err}
	}
	account := out.(*alpaca.Account)
	equity, _ := account.Equity.Float64()
	return equity, nil
}

// OpenPositions implements broker.Brokerage.
func (c *Client) OpenPositions(ctx context.Context) (map[domain.Symbol]domain.OpenPosition, error) {
	out, err := c.call(ctx, "get_positions", func() (any, error) {
		return c.trading.GetPositions()
	})
	if err != nil {
		if broker.IsTransport(err) {
			return nil, err
		}
		return nil, &broker.TransportError{Op: "get_positions", Err: err}
	}

	positions := out.([]alpaca.Position)
	snapshot := make(map[domain.Symbol]domain.OpenPosition, len(positions))
	for _, p := range positions {
		entry, _ := p.AvgEntryPrice.Float64()
		qty := int(p.Qty.IntPart())
		snapshot[domain.Symbol(p.Symbol)] = domain.OpenPosition{
			Symbol:     domain.Symbol(p.Symbol),
			EntryPrice: entry,
			Qty:        qty,
		}
	}
	return snapshot, nil
}

// SubmitOrder implements broker.Brokerage. Orders are GTC market
// orders with a fresh client order ID, so an ambiguous retry cannot
// double-submit on the brokerage side.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderAck, error) {
	qty := decimal.NewFromInt(int64(req.Qty))
	side := alpaca.Buy
	if req.Side == domain.SideSell {
		side = alpaca.Sell
	}

	out, err := c.call(ctx, "place_order", func() (any, error) {
		return c.trading.PlaceOrder(alpaca.PlaceOrderRequest{
			Symbol:        string(req.Symbol),
			Qty:           &qty,
			Side:          side,
			Type:          alpaca.Market,
			TimeInForce:   alpaca.GTC,
			ClientOrderID: uuid.NewString(),
		})
	})
	if err != nil {
		if broker.IsTransport(err) {
			return nil, err
		}
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) {
			// The brokerage answered: the order is confirmed refused.
			return nil, &broker.OrderRejectedError{
				Symbol: req.Symbol,
				Side:   req.Side,
				Reason: apiErr.Message,
			}
		}
		// Network-level failure: outcome unknown, reconciled by the
		// next cycle's snapshot.
		return nil, &broker.TransportError{Op: "place_order", Err: err}
	}

	order := out.(*alpaca.Order)
	return &domain.OrderAck{
		OrderID:     order.ID,
		Symbol:      req.Symbol,
		SubmittedAt: order.SubmittedAt,
	}, nil
}

// PriceBars implements broker.MarketData.
func (c *Client) PriceBars(ctx context.Context, symbol domain.Symbol, start, end time.Time) ([]domain.PriceBar, error) {
	out, err := c.call(ctx, "get_bars", func() (any, error) {
		return c.md.GetBars(string(symbol), marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      c.feed,
		})
	})
	if err != nil {
		if broker.IsTransport(err) {
			return nil, err
		}
		return nil, &broker.TransportError{Op: fmt.Sprintf("get_bars %s", symbol), Err: err}
	}

	bars := out.([]marketdata.Bar)
	// Empty is "no data", not an error; the engine logs a data gap.
	result := make([]domain.PriceBar, len(bars))
	for i, b := range bars {
		result[i] = domain.PriceBar{Timestamp: b.Timestamp, Close: b.Close}
	}
	return result, nil
}

// IndexHistory implements broker.MarketData.
func (c *Client) IndexHistory(ctx context.Context, index domain.Symbol, days int) ([]domain.PriceBar, error) {
	end := time.Now().UTC()
	return c.PriceBars(ctx, index, end.AddDate(0, 0, -days), end)
}
