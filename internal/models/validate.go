package models

import (
	"hybrid-trader/internal/errors"
)

// Validate checks every snapshot field against its declared range.
// Out-of-range values are rejected, never clamped, so upstream defects
// surface instead of being masked.
func (s Snapshot) Validate() error {
	if s.Instrument == "" {
		return errors.NewInvalidInputError("instrument", s.Instrument, "must not be empty")
	}
	if s.Timestamp.IsZero() {
		return errors.NewInvalidInputError("timestamp", s.Timestamp, "must be set")
	}
	if !(s.Price > 0) {
		return errors.NewInvalidInputError("price", s.Price, "must be positive")
	}
	if s.AIScore < -1 || s.AIScore > 1 || s.AIScore != s.AIScore {
		return errors.NewInvalidInputError("ai_score", s.AIScore, "must be in [-1, 1]")
	}
	if s.SentimentScore < -1 || s.SentimentScore > 1 || s.SentimentScore != s.SentimentScore {
		return errors.NewInvalidInputError("sentiment_score", s.SentimentScore, "must be in [-1, 1]")
	}
	if s.RSI < 0 || s.RSI > 100 || s.RSI != s.RSI {
		return errors.NewInvalidInputError("rsi", s.RSI, "must be in [0, 100]")
	}
	if s.ATR < 0 || s.ATR != s.ATR {
		return errors.NewInvalidInputError("atr", s.ATR, "must be non-negative")
	}
	return nil
}
