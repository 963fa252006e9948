package cli

import (
	"time"

	"github.com/spf13/cobra"

	"hybrid-trader/internal/store"
)

func newStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest decision state for the configured instrument",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showStatus(cmd)
		},
	}
	return cmd
}

func (app *App) showStatus(cmd *cobra.Command) error {
	output := NewOutput(cmd)
	instrument := app.Config.Feed.Symbol

	dataStore, err := app.openStore()
	if err != nil {
		return err
	}
	defer dataStore.Close()

	outcomes, err := dataStore.GetOutcomes(cmd.Context(), store.OutcomeFilter{
		Instrument: instrument,
		Limit:      1,
	})
	if err != nil {
		return err
	}

	curve, err := dataStore.GetEquityCurve(cmd.Context(), instrument, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	if output.IsJSON() {
		payload := map[string]interface{}{
			"instrument":    instrument,
			"equity_points": len(curve),
		}
		if len(outcomes) > 0 {
			payload["latest"] = outcomes[0]
		}
		if len(curve) > 0 {
			payload["equity"] = curve[len(curve)-1].Equity
		}
		return output.JSON(payload)
	}

	output.Bold("Status: %s", instrument)
	if len(outcomes) == 0 {
		output.Info("No decision cycles recorded yet")
		return nil
	}

	latest := outcomes[0]
	output.Printf("  Last cycle:  %s\n", latest.Timestamp.Format(time.DateTime))
	output.Printf("  Signal:      %s (%.3f)\n", latest.Signal.Direction, latest.Signal.Strength)
	output.Printf("  Price:       %.2f\n", latest.Price)
	if latest.Paused {
		output.Warning("  Trading:     PAUSED")
	} else {
		output.Printf("  Trading:     active\n")
	}

	if len(curve) > 0 {
		last := curve[len(curve)-1]
		first := curve[0]
		change := 0.0
		if first.Equity > 0 {
			change = (last.Equity - first.Equity) / first.Equity * 100
		}
		output.Printf("  Equity:      %.2f (%s since %s)\n",
			last.Equity, output.FormatPercent(change), first.Timestamp.Format(time.DateOnly))
	}

	switch {
	case latest.Closed != nil:
		output.Printf("  Last action: closed %s (%s)\n", latest.Closed.ID, latest.Closed.ExitReason)
	case latest.Opened != nil:
		output.Printf("  Last action: opened %s at %.2f\n", latest.Opened.Side, latest.Opened.EntryPrice)
	default:
		output.Printf("  Last action: %s\n", holdLabel(latest.Paused))
	}

	return nil
}

func holdLabel(paused bool) string {
	if paused {
		return "holding (paused)"
	}
	return "holding"
}
