// Package fusion combines the AI score, news sentiment, and RSI into a
// single directional trading signal with a confidence gate.
package fusion

import (
	"fmt"
	"math"

	"hybrid-trader/internal/models"
)

// Config holds the fusion weights and thresholds.
type Config struct {
	WeightAI      float64
	WeightNews    float64
	WeightRSI     float64
	Threshold     float64
	RSIOversold   float64
	RSIOverbought float64
}

// DefaultConfig returns the default fusion configuration.
func DefaultConfig() Config {
	return Config{
		WeightAI:      0.5,
		WeightNews:    0.3,
		WeightRSI:     0.2,
		Threshold:     0.3,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// Engine fuses snapshot inputs into a FusedSignal. Fuse is a pure function
// of its input: no hidden state, deterministic across calls.
type Engine struct {
	cfg Config
}

// NewEngine creates a fusion engine, validating the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.WeightAI < 0 || cfg.WeightNews < 0 || cfg.WeightRSI < 0 {
		return nil, fmt.Errorf("fusion weights must be non-negative")
	}
	if sum := cfg.WeightAI + cfg.WeightNews + cfg.WeightRSI; math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("fusion weights must sum to 1, got %.6f", sum)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0, 1]")
	}
	if cfg.RSIOversold <= 0 || cfg.RSIOverbought >= 100 || cfg.RSIOversold >= cfg.RSIOverbought {
		return nil, fmt.Errorf("rsi bounds must satisfy 0 < oversold < overbought < 100")
	}
	return &Engine{cfg: cfg}, nil
}

// Fuse computes the weighted signal for one snapshot. Input outside its
// declared range aborts with an invalid-input error; a degraded signal is
// never produced from bad data.
func (e *Engine) Fuse(snap models.Snapshot) (models.FusedSignal, error) {
	if err := snap.Validate(); err != nil {
		return models.FusedSignal{}, err
	}

	raw := e.cfg.WeightAI*snap.AIScore +
		e.cfg.WeightNews*snap.SentimentScore +
		e.cfg.WeightRSI*e.rsiContribution(snap.RSI)

	strength := math.Abs(raw)

	// raw == 0 is always FLAT, regardless of threshold.
	direction := models.DirectionFlat
	switch {
	case raw > 0 && strength >= e.cfg.Threshold:
		direction = models.DirectionLong
	case raw < 0 && strength >= e.cfg.Threshold:
		direction = models.DirectionShort
	}

	return models.FusedSignal{Direction: direction, Strength: strength}, nil
}

// rsiContribution maps RSI into a directional contribution: +1 at or below
// the oversold bound, -1 at or above the overbought bound, interpolated
// linearly through 0 at the midpoint between the bounds.
func (e *Engine) rsiContribution(rsi float64) float64 {
	mid := (e.cfg.RSIOversold + e.cfg.RSIOverbought) / 2

	switch {
	case rsi <= e.cfg.RSIOversold:
		return 1
	case rsi >= e.cfg.RSIOverbought:
		return -1
	case rsi < mid:
		return (mid - rsi) / (mid - e.cfg.RSIOversold)
	case rsi > mid:
		return -(rsi - mid) / (e.cfg.RSIOverbought - mid)
	default:
		return 0
	}
}
