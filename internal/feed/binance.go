package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/models"
)

// BinanceSource fetches spot klines from Binance.
type BinanceSource struct {
	client   *binance.Client
	symbol   string
	interval string
}

// NewBinanceSource creates a candle source for the given spot symbol.
// Public kline endpoints work with empty credentials.
func NewBinanceSource(apiKey, apiSecret, symbol, interval string) *BinanceSource {
	if interval == "" {
		interval = "1h"
	}
	return &BinanceSource{
		client:   binance.NewClient(apiKey, apiSecret),
		symbol:   symbol,
		interval: interval,
	}
}

// RecentCandles returns the most recent klines, oldest first.
func (b *BinanceSource) RecentCandles(ctx context.Context, limit int) ([]models.Candle, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(b.symbol).
		Interval(b.interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrFeedUnavailable, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := klineToCandle(k)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func klineToCandle(k *binance.Kline) (models.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.Candle{}, errors.NewInvalidInputError("open", k.Open, "unparseable kline field")
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.Candle{}, errors.NewInvalidInputError("high", k.High, "unparseable kline field")
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.Candle{}, errors.NewInvalidInputError("low", k.Low, "unparseable kline field")
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.Candle{}, errors.NewInvalidInputError("close", k.Close, "unparseable kline field")
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return models.Candle{}, errors.NewInvalidInputError("volume", k.Volume, "unparseable kline field")
	}

	return models.Candle{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}
