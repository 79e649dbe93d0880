// Package metrics exposes Prometheus instrumentation for the trading
// loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics for the trading loop.
type Registry struct {
	CyclesTotal    prometheus.Counter
	CycleErrors    prometheus.Counter
	CycleDuration  prometheus.Histogram
	DecisionsTotal *prometheus.CounterVec
	OrdersTotal    *prometheus.CounterVec
	OrderFailures  *prometheus.CounterVec
	DataGapsTotal  prometheus.Counter
	AccountEquity  prometheus.Gauge
	OpenPositions  prometheus.Gauge
	RegimeBullish  prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates and registers all trading loop metrics.
func NewRegistry() *Registry {
	r := &Registry{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equityrun_cycles_total",
			Help: "Total number of completed watchlist cycles",
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equityrun_cycle_errors_total",
			Help: "Total number of cycles aborted by an unexpected error",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "equityrun_cycle_duration_seconds",
			Help:    "Duration of one full watchlist cycle in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equityrun_decisions_total",
			Help: "Per-symbol decisions by kind",
		}, []string{"decision"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equityrun_orders_submitted_total",
			Help: "Orders accepted by the brokerage, by side",
		}, []string{"side"}),
		OrderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "equityrun_order_failures_total",
			Help: "Order submissions that failed, by failure kind",
		}, []string{"kind"}),
		DataGapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "equityrun_data_gaps_total",
			Help: "Symbols skipped for missing or failed bar data",
		}),
		AccountEquity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equityrun_account_equity",
			Help: "Account equity at the last cycle snapshot",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equityrun_open_positions",
			Help: "Open positions at the last cycle snapshot",
		}),
		RegimeBullish: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "equityrun_regime_bullish",
			Help: "1 when the market regime filter reads bullish, else 0",
		}),
		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(
		r.CyclesTotal, r.CycleErrors, r.CycleDuration,
		r.DecisionsTotal, r.OrdersTotal, r.OrderFailures,
		r.DataGapsTotal, r.AccountEquity, r.OpenPositions, r.RegimeBullish,
	)
	return r
}

// Gatherer exposes the underlying registry for the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }
