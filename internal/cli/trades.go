package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hybrid-trader/internal/models"
)

func newTradesCmd(app *App) *cobra.Command {
	var (
		limit  int
		reason string
	)

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List completed trades from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.listTrades(cmd, limit, reason)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of trades to show")
	cmd.Flags().StringVar(&reason, "reason", "", "filter by exit reason (STOP_LOSS, TAKE_PROFIT, DRAWDOWN_BREAKER, SIGNAL_REVERSAL, MANUAL)")
	return cmd
}

func (app *App) listTrades(cmd *cobra.Command, limit int, reason string) error {
	output := NewOutput(cmd)

	tradeLedger, err := app.openLedger()
	if err != nil {
		return err
	}
	defer tradeLedger.Close()

	var trades []models.TradeRecord
	err = tradeLedger.Scan(func(r models.TradeRecord) bool {
		if reason != "" && string(r.ExitReason) != reason {
			return true
		}
		trades = append(trades, r)
		return true
	})
	if err != nil {
		return err
	}

	// Newest last in the ledger; show the most recent ones.
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	if output.IsJSON() {
		return output.JSON(trades)
	}

	if len(trades) == 0 {
		output.Info("No trades recorded")
		return nil
	}

	table := NewTable(output, "ID", "INSTRUMENT", "SIDE", "ENTRY", "EXIT", "CLOSED", "REASON", "PNL%")
	for _, t := range trades {
		table.AddRow(
			shortID(t.ID),
			t.Instrument,
			string(t.Side),
			fmt.Sprintf("%.2f", t.EntryPrice),
			fmt.Sprintf("%.2f", t.ExitPrice),
			t.ExitTime.Format(time.DateTime),
			string(t.ExitReason),
			output.FormatPercent(t.PnLPct),
		)
	}
	table.Render()

	var total float64
	for _, t := range trades {
		total += t.PnL
	}
	output.Println()
	output.Printf("Total P&L: %s\n", output.ColoredString(output.PnLColor(total), fmt.Sprintf("%.2f", total)))
	return nil
}
