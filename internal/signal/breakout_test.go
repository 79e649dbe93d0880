package signal

import "testing"

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   float64
	}{
		{"last three of five", []float64{1, 2, 3, 4, 5}, 3, 4},
		{"full slice", []float64{2, 4}, 2, 3},
		{"single value", []float64{7}, 1, 7},
		{"window larger than slice", []float64{1, 2}, 3, 0},
		{"zero window", []float64{1, 2}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.values, tt.window); got != tt.want {
				t.Errorf("SMA(%v, %d) = %v, want %v", tt.values, tt.window, got, tt.want)
			}
		})
	}
}

func TestIsBreakout(t *testing.T) {
	tests := []struct {
		name      string
		closes    []float64
		avgWindow int
		want      bool
	}{
		{"last close above mean", []float64{100, 100, 100, 100, 110}, 5, true},
		{"last close below mean", []float64{110, 110, 110, 110, 100}, 5, false},
		{"last close equals mean", []float64{100, 100, 100, 100, 100}, 5, false},
		{"uses trailing window only", []float64{500, 500, 100, 100, 100, 100, 110}, 5, true},
		{"insufficient data is no signal", []float64{100, 110}, 5, false},
		{"empty closes", nil, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBreakout(tt.closes, tt.avgWindow); got != tt.want {
				t.Errorf("IsBreakout(%v, %d) = %v, want %v", tt.closes, tt.avgWindow, got, tt.want)
			}
		})
	}
}
