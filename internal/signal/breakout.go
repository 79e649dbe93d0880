// Package signal computes the per-symbol entry signal from recent
// closing prices.
package signal

// SMA returns the arithmetic mean of the last window values. Returns 0
// if window <= 0 or fewer than window values are available.
func SMA(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// IsBreakout reports whether the most recent close strictly exceeds the
// mean of the last avgWindow closes. With fewer than avgWindow closes
// the signal is indeterminate and reported as false rather than an
// error.
func IsBreakout(closes []float64, avgWindow int) bool {
	if avgWindow <= 0 || len(closes) < avgWindow {
		return false
	}
	last := closes[len(closes)-1]
	return last > SMA(closes, avgWindow)
}
