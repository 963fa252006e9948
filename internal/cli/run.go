package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hybrid-trader/internal/feed"
	"hybrid-trader/internal/fusion"
	"hybrid-trader/internal/predict"
	"hybrid-trader/internal/risk"
	"hybrid-trader/internal/store"
	"hybrid-trader/internal/trading"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		interval time.Duration
		equity   float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live trading loop",
		Long: `Run the decision loop against live market data. Every interval the
engine fetches a snapshot, fuses the signal, applies the risk rules, and
updates the position.

Signals:
  SIGUSR1  pause trading (no new entries; risk exits stay active)
  SIGUSR2  resume trading
  SIGINT   close any open position and shut down`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runLoop(cmd, interval, equity)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "decision cycle interval")
	cmd.Flags().Float64Var(&equity, "equity", 10000, "starting account equity")
	return cmd
}

func (app *App) runLoop(cmd *cobra.Command, interval time.Duration, equity float64) error {
	output := NewOutput(cmd)
	cfg := app.Config

	engine, err := fusion.NewEngine(app.fusionConfig())
	if err != nil {
		return err
	}

	tradeLedger, err := app.openLedger()
	if err != nil {
		return err
	}
	defer tradeLedger.Close()

	dataStore, err := app.openStore()
	if err != nil {
		return err
	}
	defer dataStore.Close()

	orch := trading.NewOrchestrator(
		engine,
		risk.NewController(app.riskConfig()),
		risk.NewFixedFractionalSizer(cfg.Sizing.Fraction),
		tradeLedger,
		app.newNotifier(),
		app.Logger,
	)

	builder, closeProviders, err := app.newSnapshotBuilder()
	if err != nil {
		return err
	}
	defer closeProviders()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pauseCh := make(chan os.Signal, 1)
	resumeCh := make(chan os.Signal, 1)
	signal.Notify(pauseCh, syscall.SIGUSR1)
	signal.Notify(resumeCh, syscall.SIGUSR2)

	output.Info("Trading %s every %s (pid %d)", cfg.Feed.Symbol, interval, os.Getpid())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First cycle runs immediately; the ticker covers the rest.
	if err := app.cycle(ctx, orch, builder, dataStore, &equity); err != nil {
		app.Logger.Error().Err(err).Msg("Cycle failed")
	}

	for {
		select {
		case <-ctx.Done():
			output.Warning("Shutting down, closing open position")
			record, err := orch.CloseAll(context.Background(), cfg.Feed.Symbol)
			if err != nil {
				app.Logger.Error().Err(err).Msg("Close on shutdown failed")
				return err
			}
			if record != nil {
				output.Info("Closed %s at %.2f (%s)", record.Instrument, record.ExitPrice, record.ExitReason)
			}
			return nil

		case <-pauseCh:
			orch.Pause(cfg.Feed.Symbol)
			output.Warning("Trading paused")

		case <-resumeCh:
			orch.Resume(cfg.Feed.Symbol)
			output.Success("Trading resumed")

		case <-ticker.C:
			if err := app.cycle(ctx, orch, builder, dataStore, &equity); err != nil {
				app.Logger.Error().Err(err).Msg("Cycle failed")
			}
		}
	}
}

// cycle runs one decision cycle and persists its outcome. Equity is marked
// by realized P&L only; open positions do not move it until they close.
func (app *App) cycle(ctx context.Context, orch *trading.Orchestrator, builder *feed.Builder, dataStore store.DataStore, equity *float64) error {
	snap, err := builder.Next(ctx)
	if err != nil {
		return err
	}

	outcome, err := orch.RunCycle(ctx, snap, *equity)
	if err != nil {
		return err
	}
	if outcome.Closed != nil {
		*equity += outcome.Closed.PnL
	}

	if err := dataStore.SaveOutcome(ctx, outcome); err != nil {
		app.Logger.Warn().Err(err).Msg("Outcome not persisted")
	}
	if err := dataStore.SaveEquityPoint(ctx, snap.Instrument, snap.Timestamp, *equity); err != nil {
		app.Logger.Warn().Err(err).Msg("Equity point not persisted")
	}
	return nil
}

// newSnapshotBuilder wires the candle source and score providers from config.
func (app *App) newSnapshotBuilder() (*feed.Builder, func(), error) {
	cfg := app.Config

	candles := feed.NewBinanceSource(cfg.Feed.APIKey, cfg.Feed.APISecret, cfg.Feed.Symbol, cfg.Feed.Interval)

	var scorer predict.ScoreProvider
	cleanup := func() {}
	switch cfg.Predict.Provider {
	case "onnx":
		onnx, err := predict.NewONNXScorer(cfg.Predict.ModelPath)
		if err != nil {
			return nil, nil, err
		}
		scorer = onnx
		cleanup = onnx.Close
	case "openai":
		scorer = predict.NewLLMScorer(cfg.Predict.OpenAIKey, cfg.Predict.Model)
	}

	var sentiment predict.SentimentProvider
	if cfg.Predict.NewsAPIKey != "" {
		sentiment = predict.NewNewsScorer(cfg.Predict.NewsAPIKey)
	}

	builder := feed.NewBuilder(cfg.Feed.Symbol, candles, scorer, sentiment, cfg.Predict.NewsQuery, app.Logger)
	return builder, cleanup, nil
}
