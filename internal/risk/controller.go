// Package risk owns the stop-loss, take-profit, and drawdown-breaker rules
// that decide whether an open position must be closed.
package risk

import (
	"hybrid-trader/internal/models"
)

// Action is the verdict of a risk evaluation.
type Action string

const (
	ActionHold  Action = "HOLD"
	ActionClose Action = "CLOSE"
)

// Verdict is the result of evaluating an open position against the risk
// rules. Reason is set only when Action is CLOSE.
type Verdict struct {
	Action Action
	Reason models.ExitReason
}

// Hold is the verdict when no rule fires.
var Hold = Verdict{Action: ActionHold}

func closeFor(reason models.ExitReason) Verdict {
	return Verdict{Action: ActionClose, Reason: reason}
}

// Config holds the risk thresholds.
type Config struct {
	StopLossPct       float64 // fixed band as fraction of entry price
	TakeProfitATRMult float64 // take-profit distance in ATR multiples
	DrawdownThreshold float64 // account drawdown that trips the breaker
}

// DefaultConfig returns the default risk configuration.
func DefaultConfig() Config {
	return Config{
		StopLossPct:       0.02,
		TakeProfitATRMult: 1.5,
		DrawdownThreshold: 0.05,
	}
}

// Controller evaluates positions against the risk rules. It is stateless;
// all mutable risk state is passed in explicitly.
type Controller struct {
	cfg Config
}

// NewController creates a risk controller.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// UpdateEquity advances the equity high-water mark and reports whether the
// drawdown breaker tripped on this observation. The mark tracks equity on
// every call, not only at breach time. A trip sets TradingPaused, which
// stays set until an explicit resume.
func (c *Controller) UpdateEquity(equity float64, rs *models.RiskState) bool {
	if equity > rs.EquityCurvePeak {
		rs.EquityCurvePeak = equity
	}
	if rs.EquityCurvePeak <= 0 {
		return false
	}
	drawdown := (rs.EquityCurvePeak - equity) / rs.EquityCurvePeak
	if drawdown > c.cfg.DrawdownThreshold {
		rs.TradingPaused = true
		return true
	}
	return false
}

// Evaluate applies the risk rules to an open position, in precedence order:
// drawdown breaker, stop-loss, take-profit. A breach short-circuits any
// weaker rule. The equity high-water mark is updated on every call.
func (c *Controller) Evaluate(pos *models.Position, price, equity float64, rs *models.RiskState) Verdict {
	breached := c.UpdateEquity(equity, rs)
	if breached {
		// Account-wide: every open position gets closed on a breach.
		return closeFor(models.ExitDrawdownBreaker)
	}

	if pos == nil {
		return Hold
	}

	switch pos.Side {
	case models.SideLong:
		if price <= pos.StopLossPrice {
			return closeFor(models.ExitStopLoss)
		}
		if price >= pos.TakeProfitPrice {
			return closeFor(models.ExitTakeProfit)
		}
	case models.SideShort:
		if price >= pos.StopLossPrice {
			return closeFor(models.ExitStopLoss)
		}
		if price <= pos.TakeProfitPrice {
			return closeFor(models.ExitTakeProfit)
		}
	}

	return Hold
}

// EntryLevels derives the stop-loss and take-profit prices fixed at entry.
// The stop is a fixed percentage band; the target scales with realized
// volatility through the ATR multiplier.
func (c *Controller) EntryLevels(side models.Side, entryPrice, atr float64) (stopLoss, takeProfit float64) {
	switch side {
	case models.SideLong:
		stopLoss = entryPrice * (1 - c.cfg.StopLossPct)
		takeProfit = entryPrice + c.cfg.TakeProfitATRMult*atr
	case models.SideShort:
		stopLoss = entryPrice * (1 + c.cfg.StopLossPct)
		takeProfit = entryPrice - c.cfg.TakeProfitATRMult*atr
	}
	return stopLoss, takeProfit
}
