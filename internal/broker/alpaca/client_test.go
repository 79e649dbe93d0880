package alpaca

import (
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/sony/gobreaker"
)

func TestBreakerIgnoresOrderRejections(t *testing.T) {
	b := newBreaker()

	rejection := &alpaca.APIError{Code: 40310000, Message: "insufficient buying power"}
	for i := 0; i < 10; i++ {
		_, err := b.Execute(func() (any, error) { return nil, rejection })
		var apiErr *alpaca.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("execute %d: got %v, want the API error back", i, err)
		}
	}

	if got := b.State(); got != gobreaker.StateClosed {
		t.Fatalf("after repeated rejections state = %v, want closed", got)
	}
}

func TestBreakerOpensOnTransportFailures(t *testing.T) {
	b := newBreaker()

	down := errors.New("connection refused")
	for i := 0; i < 5; i++ {
		if _, err := b.Execute(func() (any, error) { return nil, down }); !errors.Is(err, down) {
			t.Fatalf("execute %d: got %v, want %v", i, err, down)
		}
	}

	if got := b.State(); got != gobreaker.StateOpen {
		t.Fatalf("after consecutive failures state = %v, want open", got)
	}
	if _, err := b.Execute(func() (any, error) { return nil, nil }); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("open breaker returned %v, want ErrOpenState", err)
	}
}
