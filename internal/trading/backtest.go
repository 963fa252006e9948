package trading

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/fusion"
	"hybrid-trader/internal/ledger"
	"hybrid-trader/internal/models"
	"hybrid-trader/internal/notify"
	"hybrid-trader/internal/risk"
)

// BacktestConfig configures a deterministic replay over recorded snapshots.
type BacktestConfig struct {
	Fusion        fusion.Config
	Risk          risk.Config
	SizerFraction float64
	StartEquity   float64
}

// EquityPoint is one equity observation on the backtest curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// BacktestResult holds the replayed trades and the derived metrics.
type BacktestResult struct {
	Trades      []models.TradeRecord
	EquityCurve []EquityPoint

	StartEquity   float64
	FinalEquity   float64
	TotalReturn   float64
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	MaxDrawdown   float64
	SharpeRatio   float64
	ProfitFactor  float64
}

// Backtest replays recorded snapshots through the same decision path as live
// trading. The replay is single threaded, in input order, against a fresh
// orchestrator wired with an in-memory ledger and a silent notifier, so
// identical inputs always yield byte-identical trade records. Equity feeds
// back into the replay as each closed trade's P&L is realized.
func Backtest(snapshots []models.Snapshot, cfg BacktestConfig, logger zerolog.Logger) (*BacktestResult, error) {
	if len(snapshots) == 0 {
		return nil, errors.NewInvalidInputError("snapshots", 0, "backtest requires at least one snapshot")
	}
	if cfg.StartEquity <= 0 {
		return nil, errors.NewInvalidInputError("start_equity", cfg.StartEquity, "start equity must be positive")
	}

	engine, err := fusion.NewEngine(cfg.Fusion)
	if err != nil {
		return nil, err
	}

	fraction := cfg.SizerFraction
	if fraction <= 0 {
		fraction = risk.DefaultFraction
	}

	mem := ledger.NewMemoryLedger()
	orch := NewOrchestrator(
		engine,
		risk.NewController(cfg.Risk),
		risk.NewFixedFractionalSizer(fraction),
		mem,
		notify.Nop{},
		logger,
	)

	result := &BacktestResult{
		StartEquity: cfg.StartEquity,
		EquityCurve: make([]EquityPoint, 0, len(snapshots)),
	}

	equity := cfg.StartEquity
	ctx := context.Background()

	for _, snap := range snapshots {
		outcome, err := orch.RunCycle(ctx, snap, equity)
		if err != nil {
			return nil, fmt.Errorf("replay at %s: %w", snap.Timestamp.Format(time.RFC3339), err)
		}
		if outcome.Closed != nil {
			equity += outcome.Closed.PnL
		}
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Timestamp: snap.Timestamp,
			Equity:    equity,
		})
	}

	trades, err := mem.ReadAll()
	if err != nil {
		return nil, err
	}
	result.Trades = trades
	result.FinalEquity = equity

	computeMetrics(result)
	return result, nil
}

func computeMetrics(r *BacktestResult) {
	r.TotalTrades = len(r.Trades)
	r.TotalReturn = (r.FinalEquity - r.StartEquity) / r.StartEquity * 100

	var grossWin, grossLoss float64
	for _, t := range r.Trades {
		if t.PnL > 0 {
			r.WinningTrades++
			grossWin += t.PnL
		} else {
			r.LosingTrades++
			grossLoss += math.Abs(t.PnL)
		}
	}
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}
	if grossLoss > 0 {
		r.ProfitFactor = grossWin / grossLoss
	}

	peak := r.StartEquity
	for _, p := range r.EquityCurve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (peak - p.Equity) / peak
			if dd > r.MaxDrawdown {
				r.MaxDrawdown = dd
			}
		}
	}
	r.MaxDrawdown *= 100

	r.SharpeRatio = sharpeRatio(r.EquityCurve)
}

// sharpeRatio computes the annualized Sharpe ratio of per-cycle returns,
// assuming daily cycles and a 5% annual risk-free rate.
func sharpeRatio(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := stat.Mean(returns, nil)
	std := stat.StdDev(returns, nil)
	if std == 0 {
		return 0
	}

	riskFree := 0.05 / 252
	return (mean - riskFree) / std * math.Sqrt(252)
}

// Summary renders the backtest metrics as a terminal report.
func (r *BacktestResult) Summary() string {
	var sb strings.Builder
	sb.WriteString("Backtest Results\n")
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	sb.WriteString(fmt.Sprintf("Start Equity:   %.2f\n", r.StartEquity))
	sb.WriteString(fmt.Sprintf("Final Equity:   %.2f\n", r.FinalEquity))
	sb.WriteString(fmt.Sprintf("Total Return:   %.2f%%\n", r.TotalReturn))
	sb.WriteString(fmt.Sprintf("Trades:         %d (%d W / %d L)\n", r.TotalTrades, r.WinningTrades, r.LosingTrades))
	sb.WriteString(fmt.Sprintf("Win Rate:       %.1f%%\n", r.WinRate))
	sb.WriteString(fmt.Sprintf("Max Drawdown:   %.2f%%\n", r.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("Sharpe Ratio:   %.2f\n", r.SharpeRatio))
	if r.ProfitFactor > 0 {
		sb.WriteString(fmt.Sprintf("Profit Factor:  %.2f\n", r.ProfitFactor))
	}
	return sb.String()
}
