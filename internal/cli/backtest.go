package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"hybrid-trader/internal/feed"
	"hybrid-trader/internal/models"
	"hybrid-trader/internal/trading"
)

// csvCandle is the OHLCV row layout for backtest input files.
type csvCandle struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

func newBacktestCmd(app *App) *cobra.Command {
	var (
		dataFile    string
		startEquity float64
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical candles through the decision engine",
		Long: `Replay a historical OHLCV series through the exact same decision path
as live trading. The replay is deterministic: the same input file and
configuration always produce identical trades.

The input is a CSV file with columns: timestamp,open,high,low,close,volume
(timestamps in RFC 3339, oldest first).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBacktest(cmd, dataFile, startEquity)
		},
	}

	cmd.Flags().StringVar(&dataFile, "data", "", "path to OHLCV CSV file (required)")
	cmd.Flags().Float64Var(&startEquity, "equity", 10000, "starting equity")
	cmd.MarkFlagRequired("data")
	return cmd
}

func (app *App) runBacktest(cmd *cobra.Command, dataFile string, startEquity float64) error {
	output := NewOutput(cmd)

	candles, err := loadCandlesCSV(dataFile)
	if err != nil {
		return err
	}

	snapshots, err := app.buildSnapshots(cmd.Context(), candles)
	if err != nil {
		return err
	}
	output.Info("Replaying %d snapshots from %s", len(snapshots), dataFile)

	result, err := trading.Backtest(snapshots, trading.BacktestConfig{
		Fusion:        app.fusionConfig(),
		Risk:          app.riskConfig(),
		SizerFraction: app.Config.Sizing.Fraction,
		StartEquity:   startEquity,
	}, app.Logger)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(result)
	}

	output.Println(result.Summary())
	if len(result.Trades) > 0 {
		table := NewTable(output, "ID", "SIDE", "ENTRY", "EXIT", "REASON", "PNL%")
		for _, t := range result.Trades {
			table.AddRow(
				shortID(t.ID),
				string(t.Side),
				fmt.Sprintf("%.2f", t.EntryPrice),
				fmt.Sprintf("%.2f", t.ExitPrice),
				string(t.ExitReason),
				output.FormatPercent(t.PnLPct),
			)
		}
		table.Render()
	}
	return nil
}

// buildSnapshots walks the candle series through the indicator pipeline,
// producing the snapshot each live cycle would have seen. Score providers
// are left out so the replay stays deterministic; AI and sentiment read as
// neutral.
func (app *App) buildSnapshots(ctx context.Context, candles []models.Candle) ([]models.Snapshot, error) {
	source := feed.NewHistorySource(candles)
	builder := feed.NewBuilder(app.Config.Feed.Symbol, source, nil, nil, "", app.Logger)

	var snapshots []models.Snapshot
	for !source.Done() {
		snap, err := builder.Next(ctx)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
		source.Advance()
	}
	return snapshots, nil
}

func loadCandlesCSV(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*csvCandle
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, r := range rows {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp %q: %w", i+1, r.Timestamp, err)
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return candles, nil
}

func shortID(id string) string {
	if len(id) > 14 {
		return id[:14]
	}
	return id
}
