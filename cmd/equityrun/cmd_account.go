package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quietmarkets/equityrun/internal/domain"
)

// accountCmd prints current account equity.
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show current account equity",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBrokerClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		equity, err := client.AccountEquity(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Equity: $%.2f\n", equity)
		return nil
	},
}

// positionsCmd prints the current open-position snapshot.
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show currently open positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBrokerClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		positions, err := client.OpenPositions(ctx)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			fmt.Println("No open positions.")
			return nil
		}

		symbols := make([]string, 0, len(positions))
		for sym := range positions {
			symbols = append(symbols, string(sym))
		}
		sort.Strings(symbols)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tQTY\tENTRY")
		for _, sym := range symbols {
			p := positions[domain.Symbol(sym)]
			fmt.Fprintf(w, "%s\t%d\t$%.2f\n", p.Symbol, p.Qty, p.EntryPrice)
		}
		return w.Flush()
	},
}
