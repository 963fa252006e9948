// Package predict provides the AI score and news sentiment providers that
// feed the signal fusion engine.
package predict

import (
	"context"

	"hybrid-trader/internal/models"
)

// ScoreProvider produces a directional conviction score in [-1, 1] from
// recent market history. Positive is bullish, negative is bearish.
type ScoreProvider interface {
	Score(ctx context.Context, candles []models.Candle) (float64, error)
}

// SentimentProvider produces a news sentiment score in [-1, 1].
type SentimentProvider interface {
	Sentiment(ctx context.Context, query string) (float64, error)
}

// ClampScore pins a provider score to [-1, 1]. Providers are trusted to
// stay in range; this catches accumulation drift at the boundary only.
func ClampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// NeutralScore is returned when a provider degrades gracefully.
const NeutralScore = 0.0
