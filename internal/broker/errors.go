package broker

import (
	"errors"
	"fmt"

	"github.com/quietmarkets/equityrun/internal/domain"
)

// DataUnavailableError marks an empty or failed bar/index fetch. It is
// recoverable: the engine skips the symbol, and the regime filter fails
// open.
type DataUnavailableError struct {
	Symbol domain.Symbol
	Reason string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("no data for %s: %s", e.Symbol, e.Reason)
}

// OrderRejectedError marks a brokerage-side refusal of an order. The
// rejection is confirmed: the order did not reach the book.
type OrderRejectedError struct {
	Symbol domain.Symbol
	Side   domain.OrderSide
	Reason string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected for %s %s: %s", e.Side, e.Symbol, e.Reason)
}

// TransportError marks a network or auth failure talking to the broker
// or data provider. For order submission the outcome is unknown, which
// is distinct from a confirmed rejection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InvalidParameterError marks bad local inputs (e.g. sizing with a
// non-positive price). Immediate and non-retryable.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// IsDataUnavailable reports whether err is a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var e *DataUnavailableError
	return errors.As(err, &e)
}

// IsOrderRejected reports whether err is a confirmed order rejection.
func IsOrderRejected(err error) bool {
	var e *OrderRejectedError
	return errors.As(err, &e)
}

// IsTransport reports whether err is a transport failure with unknown
// outcome.
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsInvalidParameter reports whether err is a local input error.
func IsInvalidParameter(err error) bool {
	var e *InvalidParameterError
	return errors.As(err, &e)
}
