// Package models provides domain models for the trading engine.
package models

import (
	"time"
)

// Direction represents the directional call of a fused signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	DirectionFlat  Direction = "FLAT"
)

// Side represents the side of an open position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposes reports whether a signal direction is opposite to the position side.
func (d Direction) Opposes(s Side) bool {
	return (d == DirectionLong && s == SideShort) ||
		(d == DirectionShort && s == SideLong)
}

// ExitReason represents why a position was closed.
type ExitReason string

const (
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitTakeProfit      ExitReason = "TAKE_PROFIT"
	ExitDrawdownBreaker ExitReason = "DRAWDOWN_BREAKER"
	ExitSignalReversal  ExitReason = "SIGNAL_REVERSAL"
	ExitManual          ExitReason = "MANUAL"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Snapshot bundles the inputs for one decision cycle. All fields must be
// within their declared ranges; consumers validate and never clamp.
type Snapshot struct {
	Instrument     string
	Timestamp      time.Time
	Price          float64 // positive
	AIScore        float64 // [-1, 1]
	SentimentScore float64 // [-1, 1]
	RSI            float64 // [0, 100]
	ATR            float64 // >= 0
}

// FusedSignal is the output of signal fusion: a directional call plus the
// confidence behind it. Direction is FLAT iff Strength fell below the
// configured decision threshold.
type FusedSignal struct {
	Direction Direction
	Strength  float64 // [0, 1]
}

// Position represents the single open position for an instrument. Stop-loss
// and take-profit levels are fixed at entry for the life of the position.
type Position struct {
	Instrument           string
	Side                 Side
	EntryPrice           float64
	EntryTime            time.Time
	Size                 float64
	StopLossPrice        float64
	TakeProfitPrice      float64
	ATRAtEntry           float64
	PeakEquitySinceEntry float64
}

// TradeRecord is the immutable, append-only record of a completed trade.
type TradeRecord struct {
	ID         string
	Instrument string
	Side       Side
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	ExitReason ExitReason
	PnLPct     float64
	PnL        float64
}

// RiskState is the per-instrument risk state shared across decision cycles.
// TradingPaused is set by the drawdown breaker or an external pause command
// and cleared only by an explicit resume.
type RiskState struct {
	EquityCurvePeak float64
	TradingPaused   bool
}

// DecisionOutcome summarizes one decision cycle for the notification layer.
type DecisionOutcome struct {
	Instrument string
	Timestamp  time.Time
	Signal     FusedSignal
	Price      float64
	Equity     float64
	Paused     bool
	Opened     *Position
	Closed     *TradeRecord
}

// Status is a point-in-time view of an instrument's trading state.
type Status struct {
	Instrument   string
	Paused       bool
	Equity       float64
	EquityPeak   float64
	OpenPosition *Position
	ClosedTrades int
	AsOf         time.Time
}
