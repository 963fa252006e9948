// Package feed assembles decision-cycle snapshots from market data and the
// score providers.
package feed

import (
	"context"

	"github.com/rs/zerolog"

	"hybrid-trader/internal/models"
	"hybrid-trader/internal/predict"
)

// SnapshotSource produces one snapshot per decision cycle.
type SnapshotSource interface {
	Next(ctx context.Context) (models.Snapshot, error)
}

// CandleSource fetches recent market history for an instrument.
type CandleSource interface {
	RecentCandles(ctx context.Context, limit int) ([]models.Candle, error)
}

// Builder combines a candle source with the score providers into full
// snapshots. A failing provider degrades that score to neutral and the
// cycle proceeds; missing market data fails the cycle.
type Builder struct {
	instrument string
	candles    CandleSource
	scorer     predict.ScoreProvider
	sentiment  predict.SentimentProvider
	newsQuery  string
	history    int
	logger     zerolog.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(instrument string, candles CandleSource, scorer predict.ScoreProvider, sentiment predict.SentimentProvider, newsQuery string, logger zerolog.Logger) *Builder {
	return &Builder{
		instrument: instrument,
		candles:    candles,
		scorer:     scorer,
		sentiment:  sentiment,
		newsQuery:  newsQuery,
		history:    100,
		logger:     logger.With().Str("component", "feed").Str("instrument", instrument).Logger(),
	}
}

// Next assembles a snapshot from the latest market data.
func (b *Builder) Next(ctx context.Context) (models.Snapshot, error) {
	candles, err := b.candles.RecentCandles(ctx, b.history)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(candles) < rsiPeriod+1 {
		return models.Snapshot{}, errNotEnoughHistory(len(candles))
	}

	last := candles[len(candles)-1]

	aiScore := predict.NeutralScore
	if b.scorer != nil {
		score, err := b.scorer.Score(ctx, candles)
		if err != nil {
			b.logger.Warn().Err(err).Msg("AI score unavailable, using neutral")
		} else {
			aiScore = predict.ClampScore(score)
		}
	}

	sentScore := predict.NeutralScore
	if b.sentiment != nil {
		score, err := b.sentiment.Sentiment(ctx, b.newsQuery)
		if err != nil {
			b.logger.Warn().Err(err).Msg("Sentiment unavailable, using neutral")
		} else {
			sentScore = predict.ClampScore(score)
		}
	}

	snap := models.Snapshot{
		Instrument:     b.instrument,
		Timestamp:      last.Timestamp,
		Price:          last.Close,
		AIScore:        aiScore,
		SentimentScore: sentScore,
		RSI:            RSI(candles, rsiPeriod),
		ATR:            ATR(candles, atrPeriod),
	}
	return snap, snap.Validate()
}
