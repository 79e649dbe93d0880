// Package sizing computes share quantities from fractional account
// risk.
package sizing

import (
	"math"

	"github.com/quietmarkets/equityrun/internal/broker"
)

// Size returns the number of shares to buy so that a stop-out loses at
// most equity*riskFraction: floor(equity*riskFraction / (price*stopPct)),
// clamped to a minimum of 1 share so a small account still trades.
//
// price and stopPct must be positive; equity and riskFraction must be
// non-negative.
func Size(equity, price, riskFraction, stopPct float64) (int, error) {
	if price <= 0 {
		return 0, &broker.InvalidParameterError{Param: "price", Reason: "must be positive"}
	}
	if stopPct <= 0 {
		return 0, &broker.InvalidParameterError{Param: "stop_pct", Reason: "must be positive"}
	}
	if equity < 0 {
		return 0, &broker.InvalidParameterError{Param: "equity", Reason: "must not be negative"}
	}
	if riskFraction < 0 {
		return 0, &broker.InvalidParameterError{Param: "risk_fraction", Reason: "must not be negative"}
	}

	riskAmount := equity * riskFraction
	stopDistance := price * stopPct
	qty := int(math.Floor(riskAmount / stopDistance))
	if qty < 1 {
		qty = 1
	}
	return qty, nil
}
