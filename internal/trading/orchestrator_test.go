package trading

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/fusion"
	"hybrid-trader/internal/ledger"
	"hybrid-trader/internal/models"
	"hybrid-trader/internal/notify"
	"hybrid-trader/internal/risk"
)

func testOrchestrator(t *testing.T) (*Orchestrator, *ledger.MemoryLedger) {
	t.Helper()
	engine, err := fusion.NewEngine(fusion.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	mem := ledger.NewMemoryLedger()
	orch := NewOrchestrator(
		engine,
		risk.NewController(risk.DefaultConfig()),
		risk.NewFixedFractionalSizer(0.1),
		mem,
		notify.Nop{},
		zerolog.Nop(),
	)
	return orch, mem
}

func bullishSnap(price float64, minute int) models.Snapshot {
	return models.Snapshot{
		Instrument:     "BTCUSDT",
		Timestamp:      time.Date(2025, 6, 1, 0, minute, 0, 0, time.UTC),
		Price:          price,
		AIScore:        0.8,
		SentimentScore: 0.5,
		RSI:            25,
		ATR:            2,
	}
}

func neutralSnap(price float64, minute int) models.Snapshot {
	return models.Snapshot{
		Instrument: "BTCUSDT",
		Timestamp:  time.Date(2025, 6, 1, 0, minute, 0, 0, time.UTC),
		Price:      price,
		RSI:        50,
		ATR:        2,
	}
}

func TestRunCycleOpensAndCloses(t *testing.T) {
	orch, mem := testOrchestrator(t)
	ctx := context.Background()

	outcome, err := orch.RunCycle(ctx, bullishSnap(100, 0), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Opened == nil {
		t.Fatal("bullish snapshot should open a position")
	}

	outcome, err = orch.RunCycle(ctx, neutralSnap(97, 1), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Closed == nil || outcome.Closed.ExitReason != models.ExitStopLoss {
		t.Fatalf("expected STOP_LOSS close, got %+v", outcome.Closed)
	}

	records, _ := mem.ReadAll()
	if len(records) != 1 {
		t.Errorf("ledger has %d records, want 1", len(records))
	}
}

func TestRunCycleRejectsStaleSnapshot(t *testing.T) {
	orch, _ := testOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.RunCycle(ctx, neutralSnap(100, 5), 10000); err != nil {
		t.Fatal(err)
	}

	_, err := orch.RunCycle(ctx, neutralSnap(100, 4), 10000)
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for backwards timestamp", err)
	}

	// Equal timestamps are allowed; the requirement is non-decreasing.
	if _, err := orch.RunCycle(ctx, neutralSnap(100, 5), 10000); err != nil {
		t.Errorf("equal timestamp rejected: %v", err)
	}
}

func TestPauseBlocksEntriesUntilResume(t *testing.T) {
	orch, _ := testOrchestrator(t)
	ctx := context.Background()

	orch.Pause("BTCUSDT")
	outcome, err := orch.RunCycle(ctx, bullishSnap(100, 0), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Opened != nil {
		t.Fatal("paused instrument must not open positions")
	}
	if !outcome.Paused {
		t.Error("outcome should report the paused state")
	}

	orch.Resume("BTCUSDT")
	outcome, err = orch.RunCycle(ctx, bullishSnap(100, 1), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Opened == nil {
		t.Fatal("resume must re-enable entries")
	}
}

func TestBreakerPausesAcrossCycles(t *testing.T) {
	orch, _ := testOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.RunCycle(ctx, neutralSnap(100, 0), 10000); err != nil {
		t.Fatal(err)
	}

	// 10% drawdown trips the breaker even while flat.
	outcome, err := orch.RunCycle(ctx, bullishSnap(100, 1), 9000)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Paused {
		t.Fatal("drawdown breach must pause trading")
	}
	if outcome.Opened != nil {
		t.Fatal("breach cycle must not open a position")
	}

	// Equity recovery alone does not resume.
	outcome, err = orch.RunCycle(ctx, bullishSnap(100, 2), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Opened != nil {
		t.Error("pause must persist until an explicit resume")
	}
}

func TestCloseAllManual(t *testing.T) {
	orch, mem := testOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.RunCycle(ctx, bullishSnap(100, 0), 10000); err != nil {
		t.Fatal(err)
	}

	record, err := orch.CloseAll(ctx, "BTCUSDT")
	if err != nil {
		t.Fatal(err)
	}
	if record == nil || record.ExitReason != models.ExitManual {
		t.Fatalf("expected MANUAL close, got %+v", record)
	}
	if record.ExitPrice != 100 {
		t.Errorf("exit price = %v, want last observed 100", record.ExitPrice)
	}

	// No open position: CloseAll is a no-op.
	record, err = orch.CloseAll(ctx, "BTCUSDT")
	if err != nil || record != nil {
		t.Errorf("second CloseAll = (%v, %v), want (nil, nil)", record, err)
	}

	records, _ := mem.ReadAll()
	if len(records) != 1 {
		t.Errorf("ledger has %d records, want 1", len(records))
	}
}

func TestStatusSnapshot(t *testing.T) {
	orch, _ := testOrchestrator(t)
	ctx := context.Background()

	if _, err := orch.RunCycle(ctx, bullishSnap(100, 0), 10000); err != nil {
		t.Fatal(err)
	}

	status := orch.Status("BTCUSDT")
	if status.OpenPosition == nil {
		t.Fatal("status should expose the open position")
	}
	if status.Paused {
		t.Error("status should not report paused")
	}
	if status.EquityPeak != 10000 {
		t.Errorf("equity peak = %v, want 10000", status.EquityPeak)
	}
}

func TestInstrumentsAreIsolated(t *testing.T) {
	orch, _ := testOrchestrator(t)
	ctx := context.Background()

	orch.Pause("ETHUSDT")

	outcome, err := orch.RunCycle(ctx, bullishSnap(100, 0), 10000)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Opened == nil {
		t.Error("pausing one instrument must not affect another")
	}
}

func TestBacktestDeterminism(t *testing.T) {
	snapshots := []models.Snapshot{
		bullishSnap(100, 0),
		neutralSnap(101, 1),
		neutralSnap(103.5, 2), // take-profit at 103
		bullishSnap(103, 3),
		neutralSnap(100.8, 4), // stop at 100.94
		neutralSnap(101, 5),
	}

	cfg := BacktestConfig{
		Fusion:        fusion.DefaultConfig(),
		Risk:          risk.DefaultConfig(),
		SizerFraction: 0.1,
		StartEquity:   10000,
	}

	first, err := Backtest(snapshots, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Backtest(snapshots, cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Trades, second.Trades) {
		t.Error("identical inputs must produce identical trade records")
	}
	if len(first.Trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(first.Trades))
	}
	if first.Trades[0].ExitReason != models.ExitTakeProfit {
		t.Errorf("first exit = %v, want TAKE_PROFIT", first.Trades[0].ExitReason)
	}
	if first.Trades[1].ExitReason != models.ExitStopLoss {
		t.Errorf("second exit = %v, want STOP_LOSS", first.Trades[1].ExitReason)
	}
}

func TestBacktestEquityFeedback(t *testing.T) {
	snapshots := []models.Snapshot{
		bullishSnap(100, 0),
		neutralSnap(104, 1), // take-profit, +4% on 10 units = +40
	}

	result, err := Backtest(snapshots, BacktestConfig{
		Fusion:        fusion.DefaultConfig(),
		Risk:          risk.DefaultConfig(),
		SizerFraction: 0.1,
		StartEquity:   10000,
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(result.Trades))
	}
	want := 10000 + result.Trades[0].PnL
	if result.FinalEquity != want {
		t.Errorf("final equity = %v, want %v", result.FinalEquity, want)
	}
	if result.TotalTrades != 1 || result.WinningTrades != 1 {
		t.Errorf("metrics = %d total / %d wins, want 1/1", result.TotalTrades, result.WinningTrades)
	}
}
