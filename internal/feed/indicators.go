package feed

import (
	"math"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/models"
)

const (
	rsiPeriod = 14
	atrPeriod = 14
)

func errNotEnoughHistory(n int) error {
	return errors.NewInvalidInputError("candles", n, "not enough history for indicators")
}

// RSI computes the relative strength index over the trailing period.
// Returns 50 (neutral) when there is not enough history, and 100 when the
// window saw no losses at all.
func RSI(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50
	}

	var gains, losses float64
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ATR computes the average true range over the trailing period. Returns 0
// when there is not enough history.
func ATR(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	var sum float64
	start := len(candles) - period
	for i := start; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1])
	}
	return sum / float64(period)
}

func trueRange(cur, prev models.Candle) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}
