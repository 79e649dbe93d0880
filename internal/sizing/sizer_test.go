package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietmarkets/equityrun/internal/broker"
)

func TestSize(t *testing.T) {
	// equity 100000 * 1% risk = 1000 risk; price 50 * 3% stop = 1.50
	// per share; floor(1000/1.5) = 666 shares.
	qty, err := Size(100000, 50, 0.01, 0.03)
	require.NoError(t, err)
	assert.Equal(t, 666, qty)
}

func TestSizeMinimumOneShare(t *testing.T) {
	// Risk budget smaller than one share's stop distance still buys 1.
	qty, err := Size(100, 5000, 0.01, 0.03)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	// Zero equity also clamps to 1.
	qty, err = Size(0, 100, 0.01, 0.03)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
}

func TestSizeMonotonicity(t *testing.T) {
	// Non-decreasing in equity.
	prev := 0
	for _, equity := range []float64{1000, 10000, 50000, 250000} {
		qty, err := Size(equity, 100, 0.01, 0.03)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, qty, prev, "equity %v", equity)
		assert.GreaterOrEqual(t, qty, 1)
		prev = qty
	}

	// Non-increasing in price.
	prev = 1 << 30
	for _, price := range []float64{1, 10, 100, 1000} {
		qty, err := Size(100000, price, 0.01, 0.03)
		require.NoError(t, err)
		assert.LessOrEqual(t, qty, prev, "price %v", price)
		assert.GreaterOrEqual(t, qty, 1)
		prev = qty
	}
}

func TestSizeInvalidParameters(t *testing.T) {
	tests := []struct {
		name         string
		equity       float64
		price        float64
		riskFraction float64
		stopPct      float64
	}{
		{"zero price", 100000, 0, 0.01, 0.03},
		{"negative price", 100000, -5, 0.01, 0.03},
		{"zero stop pct", 100000, 50, 0.01, 0},
		{"negative stop pct", 100000, 50, 0.01, -0.03},
		{"negative equity", -1, 50, 0.01, 0.03},
		{"negative risk fraction", 100000, 50, -0.01, 0.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Size(tt.equity, tt.price, tt.riskFraction, tt.stopPct)
			require.Error(t, err)
			assert.True(t, broker.IsInvalidParameter(err), "want InvalidParameterError, got %v", err)
		})
	}
}
