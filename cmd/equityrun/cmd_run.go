package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	alpacabroker "github.com/quietmarkets/equityrun/internal/broker/alpaca"
	"github.com/quietmarkets/equityrun/internal/calendar"
	"github.com/quietmarkets/equityrun/internal/config"
	"github.com/quietmarkets/equityrun/internal/engine"
	"github.com/quietmarkets/equityrun/internal/exits"
	httpserver "github.com/quietmarkets/equityrun/internal/interfaces/http"
	"github.com/quietmarkets/equityrun/internal/metrics"
	"github.com/quietmarkets/equityrun/internal/regime"
	"github.com/quietmarkets/equityrun/internal/scheduler"
)

var (
	dryRun  bool
	noServe bool
)

// runCmd starts the continuous trading loop.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop continuously",
	Long: `Run the trading loop: one full watchlist pass every interval, with a
short backoff after a failed cycle. Stops cleanly on SIGINT/SIGTERM.`,
	RunE: runLoop,
}

// cycleCmd executes a single watchlist pass and exits.
var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Execute a single watchlist pass and exit",
	RunE:  runSingleCycle,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute decisions without submitting orders")
	runCmd.Flags().BoolVar(&noServe, "no-serve", false, "Disable the health/metrics HTTP server")
	cycleCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute decisions without submitting orders")
}

// newBrokerClient builds the Alpaca client from the environment.
func newBrokerClient() (*alpacabroker.Client, error) {
	cfg := alpacabroker.DefaultConfig()
	cfg.APIKey = os.Getenv("ALPACA_API_KEY")
	cfg.APISecret = os.Getenv("ALPACA_SECRET_KEY")
	if url := os.Getenv("ALPACA_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	return alpacabroker.New(cfg)
}

// buildEngine wires the engine and its collaborators from config.
func buildEngine(cfg config.Config, client *alpacabroker.Client, reg *metrics.Registry) (*engine.Engine, error) {
	cal, err := calendar.New(cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("failed to build trading calendar: %w", err)
	}

	filter := regime.NewFilter(client, regime.FilterConfig{
		IndexSymbol: cfg.Regime.IndexSymbol,
		HistoryDays: cfg.Regime.HistoryDays,
		ShortWindow: cfg.Regime.ShortWindow,
		LongWindow:  cfg.Regime.LongWindow,
	})

	trailing := exits.NewTrailingStore(exits.TrailingConfig{
		StopPct:       cfg.Strategy.StopPct,
		TakeProfitPct: cfg.Strategy.TakeProfitPct,
	})

	watchlist := cfg.DedupedWatchlist()
	if len(watchlist) == 0 {
		return nil, fmt.Errorf("watchlist is empty")
	}

	eng := engine.New(engine.Deps{
		Brokerage: client,
		Data:      client,
		Calendar:  cal,
		Regime:    filter,
		Trailing:  trailing,
		Metrics:   reg,
	}, cfg.Strategy, watchlist)
	eng.SetDryRun(dryRun)
	return eng, nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := newBrokerClient()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	eng, err := buildEngine(cfg, client, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(eng, reg, cfg.Interval(), cfg.ErrorBackoff())

	if !noServe {
		server := httpserver.NewServer(cfg.Server.Host, cfg.Server.Port, reg)
		server.Start()
		sched.OnCycle(server.RecordCycle)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("http server shutdown failed")
			}
		}()
	}

	if dryRun {
		log.Info().Msg("dry run: orders will not be submitted")
	}

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runSingleCycle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := newBrokerClient()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, client, metrics.NewRegistry())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := eng.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("cycle failed: %w", err)
	}

	fmt.Printf("Equity: $%.2f | bullish: %v | open positions: %d | trades: %d\n",
		report.Equity, report.Bullish, report.OpenPositions, report.TradesExecuted)
	for _, r := range report.Results {
		if r.Reason != "" {
			fmt.Printf("  %-8s %-16s %s\n", r.Symbol, r.Decision, r.Reason)
		} else {
			fmt.Printf("  %-8s %-16s qty=%d\n", r.Symbol, r.Decision, r.Qty)
		}
	}
	return nil
}
