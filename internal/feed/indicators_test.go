package feed

import (
	"context"
	"math"
	"testing"
	"time"

	"hybrid-trader/internal/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if got := RSI(candlesFromCloses(closes), 14); got != 100 {
		t.Errorf("RSI of monotonic gains = %v, want 100", got)
	}
}

func TestRSINeutralOnInsufficientHistory(t *testing.T) {
	if got := RSI(candlesFromCloses([]float64{100, 101}), 14); got != 50 {
		t.Errorf("RSI with short history = %v, want 50", got)
	}
}

func TestRSIBalancedMoves(t *testing.T) {
	// Alternating +1/-1 moves: equal gains and losses, RSI at 50.
	closes := make([]float64, 20)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	got := RSI(candlesFromCloses(closes), 14)
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("RSI of balanced moves = %v, want 50", got)
	}
}

func TestRSIWithinBounds(t *testing.T) {
	closes := []float64{100, 102, 99, 104, 97, 105, 103, 101, 106, 98, 100, 107, 95, 108, 102, 99}
	got := RSI(candlesFromCloses(closes), 14)
	if got < 0 || got > 100 {
		t.Errorf("RSI = %v, want within [0, 100]", got)
	}
}

func TestATRFlatMarket(t *testing.T) {
	// Constant closes with a fixed 2-point high-low range: ATR is exactly 2.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	got := ATR(candlesFromCloses(closes), 14)
	if math.Abs(got-2) > 1e-9 {
		t.Errorf("ATR = %v, want 2", got)
	}
}

func TestATRInsufficientHistory(t *testing.T) {
	if got := ATR(candlesFromCloses([]float64{100}), 14); got != 0 {
		t.Errorf("ATR with short history = %v, want 0", got)
	}
}

func TestTrueRangeUsesPreviousClose(t *testing.T) {
	prev := models.Candle{High: 101, Low: 99, Close: 100}
	// Gap up: true range extends down to the previous close.
	cur := models.Candle{High: 106, Low: 104, Close: 105}
	if got := trueRange(cur, prev); math.Abs(got-6) > 1e-9 {
		t.Errorf("trueRange = %v, want 6 (gap to previous close)", got)
	}
}

func TestHistorySourceReplaysInOrder(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	source := NewHistorySource(candlesFromCloses(closes))

	var lastTS time.Time
	cycles := 0
	for !source.Done() {
		window, err := source.RecentCandles(context.Background(), 100)
		if err != nil {
			t.Fatal(err)
		}
		latest := window[len(window)-1].Timestamp
		if !lastTS.IsZero() && latest.Before(lastTS) {
			t.Fatal("replay went backwards in time")
		}
		lastTS = latest
		cycles++
		source.Advance()
	}

	// 30 candles with a 15-candle warmup leaves 16 cycles.
	if cycles != 16 {
		t.Errorf("replayed %d cycles, want 16", cycles)
	}
}
