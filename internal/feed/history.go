package feed

import (
	"context"
	"io"

	"hybrid-trader/internal/models"
)

// HistorySource replays a fixed candle series for backtests. Each Next call
// advances the cursor by one candle, exposing the history up to that point,
// so indicator values match what a live run would have seen.
type HistorySource struct {
	candles []models.Candle
	cursor  int
	minimum int
}

// NewHistorySource creates a replay source over the given candles, oldest
// first. The cursor starts after the indicator warmup window.
func NewHistorySource(candles []models.Candle) *HistorySource {
	return &HistorySource{
		candles: candles,
		minimum: rsiPeriod + 1,
		cursor:  rsiPeriod + 1,
	}
}

// RecentCandles returns up to limit candles ending at the cursor.
func (h *HistorySource) RecentCandles(_ context.Context, limit int) ([]models.Candle, error) {
	if h.cursor > len(h.candles) {
		return nil, io.EOF
	}
	start := h.cursor - limit
	if start < 0 {
		start = 0
	}
	return h.candles[start:h.cursor], nil
}

// Advance moves the cursor forward one candle and reports whether more
// history remains.
func (h *HistorySource) Advance() bool {
	h.cursor++
	return h.cursor <= len(h.candles)
}

// Done reports whether the replay is exhausted.
func (h *HistorySource) Done() bool {
	return h.cursor > len(h.candles)
}
