package risk

import (
	"math"
	"testing"
	"time"

	"hybrid-trader/internal/models"
)

func longPosition(entry, atr float64, c *Controller) *models.Position {
	stop, target := c.EntryLevels(models.SideLong, entry, atr)
	return &models.Position{
		Instrument:      "BTCUSDT",
		Side:            models.SideLong,
		EntryPrice:      entry,
		EntryTime:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Size:            1,
		StopLossPrice:   stop,
		TakeProfitPrice: target,
		ATRAtEntry:      atr,
	}
}

func TestStopLossBoundary(t *testing.T) {
	c := NewController(DefaultConfig())
	rs := &models.RiskState{EquityCurvePeak: 10000}
	pos := longPosition(100, 2, c)

	// 2% band: stop at 98.00 exactly.
	if v := c.Evaluate(pos, 98.01, 10000, rs); v.Action != ActionHold {
		t.Errorf("price 98.01: got %v, want HOLD", v)
	}
	if v := c.Evaluate(pos, 98.00, 10000, rs); v.Action != ActionClose || v.Reason != models.ExitStopLoss {
		t.Errorf("price 98.00: got %v, want CLOSE/STOP_LOSS", v)
	}
	if v := c.Evaluate(pos, 97.50, 10000, rs); v.Action != ActionClose || v.Reason != models.ExitStopLoss {
		t.Errorf("price 97.50: got %v, want CLOSE/STOP_LOSS", v)
	}
}

func TestTakeProfitBoundary(t *testing.T) {
	c := NewController(DefaultConfig())
	rs := &models.RiskState{EquityCurvePeak: 10000}
	pos := longPosition(100, 2, c) // target at 100 + 1.5*2 = 103

	if v := c.Evaluate(pos, 102.99, 10000, rs); v.Action != ActionHold {
		t.Errorf("price 102.99: got %v, want HOLD", v)
	}
	if v := c.Evaluate(pos, 103.00, 10000, rs); v.Action != ActionClose || v.Reason != models.ExitTakeProfit {
		t.Errorf("price 103.00: got %v, want CLOSE/TAKE_PROFIT", v)
	}
}

func TestShortSideLevels(t *testing.T) {
	c := NewController(DefaultConfig())
	stop, target := c.EntryLevels(models.SideShort, 100, 2)
	if math.Abs(stop-102) > 1e-12 {
		t.Errorf("short stop = %v, want 102", stop)
	}
	if math.Abs(target-97) > 1e-12 {
		t.Errorf("short target = %v, want 97", target)
	}

	rs := &models.RiskState{EquityCurvePeak: 10000}
	pos := &models.Position{
		Side:            models.SideShort,
		EntryPrice:      100,
		StopLossPrice:   stop,
		TakeProfitPrice: target,
	}
	if v := c.Evaluate(pos, 102, 10000, rs); v.Reason != models.ExitStopLoss {
		t.Errorf("short at 102: got %v, want STOP_LOSS", v)
	}
	if v := c.Evaluate(pos, 97, 10000, rs); v.Reason != models.ExitTakeProfit {
		t.Errorf("short at 97: got %v, want TAKE_PROFIT", v)
	}
}

func TestDrawdownBreakerPrecedence(t *testing.T) {
	c := NewController(DefaultConfig())
	rs := &models.RiskState{EquityCurvePeak: 10000}

	// Position deep below its stop AND equity breaching the drawdown
	// threshold: the breaker wins.
	pos := longPosition(100, 2, c)
	v := c.Evaluate(pos, 90, 9000, rs) // 10% drawdown
	if v.Action != ActionClose || v.Reason != models.ExitDrawdownBreaker {
		t.Errorf("got %v, want CLOSE/DRAWDOWN_BREAKER", v)
	}
	if !rs.TradingPaused {
		t.Error("breaker must set TradingPaused")
	}
}

func TestDrawdownBoundary(t *testing.T) {
	c := NewController(DefaultConfig())

	// Exactly 5% is not a breach; the threshold is strict.
	rs := &models.RiskState{EquityCurvePeak: 10000}
	if c.UpdateEquity(9500, rs) {
		t.Error("5.0% drawdown must not trip the breaker")
	}
	if rs.TradingPaused {
		t.Error("TradingPaused must stay false at the boundary")
	}

	rs = &models.RiskState{EquityCurvePeak: 10000}
	if !c.UpdateEquity(9499, rs) {
		t.Error("5.01% drawdown must trip the breaker")
	}
	if !rs.TradingPaused {
		t.Error("breach must set TradingPaused")
	}
}

func TestEquityPeakUpdatesEveryCall(t *testing.T) {
	c := NewController(DefaultConfig())
	rs := &models.RiskState{}

	c.UpdateEquity(10000, rs)
	if rs.EquityCurvePeak != 10000 {
		t.Errorf("peak = %v, want 10000", rs.EquityCurvePeak)
	}

	// Lower equity never lowers the mark.
	c.UpdateEquity(9900, rs)
	if rs.EquityCurvePeak != 10000 {
		t.Errorf("peak = %v, want 10000 after dip", rs.EquityCurvePeak)
	}

	// New high advances it, including via Evaluate.
	pos := longPosition(100, 2, c)
	c.Evaluate(pos, 100, 10500, rs)
	if rs.EquityCurvePeak != 10500 {
		t.Errorf("peak = %v, want 10500 after Evaluate", rs.EquityCurvePeak)
	}
}

func TestPauseIsSticky(t *testing.T) {
	c := NewController(DefaultConfig())
	rs := &models.RiskState{EquityCurvePeak: 10000}

	c.UpdateEquity(9000, rs)
	if !rs.TradingPaused {
		t.Fatal("breach must pause trading")
	}

	// Recovery does not clear the pause; only an explicit resume does.
	c.UpdateEquity(10000, rs)
	if !rs.TradingPaused {
		t.Error("pause must persist through equity recovery")
	}
}

func TestFixedFractionalSizer(t *testing.T) {
	s := NewFixedFractionalSizer(0.1)

	if got := s.Size(10000, 100); math.Abs(got-10) > 1e-12 {
		t.Errorf("Size(10000, 100) = %v, want 10", got)
	}
	if got := s.Size(10000, 0); got != 0 {
		t.Errorf("Size with zero price = %v, want 0", got)
	}
	if got := s.Size(0, 100); got != 0 {
		t.Errorf("Size with zero equity = %v, want 0", got)
	}
}
