package notify

import (
	"context"
	"fmt"
	"time"

	"hybrid-trader/internal/models"
)

// MultiNotifier fans notifications out to every enabled channel, applying
// the configured level filter. Channel failures are collected, not fatal:
// a dead channel must never block the decision cycle.
type MultiNotifier struct {
	channels []Channel
	level    Level
}

// NewMultiNotifier creates a notifier delivering to the given channels.
func NewMultiNotifier(level Level, channels ...Channel) *MultiNotifier {
	return &MultiNotifier{channels: channels, level: level}
}

func (m *MultiNotifier) send(ctx context.Context, n Notification) error {
	if !m.level.allows(n.Type) {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	var firstErr error
	for _, ch := range m.channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, n); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("channel %s: %w", ch.Name(), err)
		}
	}
	return firstErr
}

// SendOutcome reports the result of one decision cycle.
func (m *MultiNotifier) SendOutcome(ctx context.Context, outcome *models.DecisionOutcome) error {
	status := "holding"
	switch {
	case outcome.Opened != nil && outcome.Closed != nil:
		status = "reversed"
	case outcome.Opened != nil:
		status = "opened"
	case outcome.Closed != nil:
		status = "closed"
	case outcome.Paused:
		status = "paused"
	}

	return m.send(ctx, Notification{
		Type:    TypeOutcome,
		Title:   fmt.Sprintf("Cycle: %s", outcome.Instrument),
		Message: fmt.Sprintf("Signal %s (%.3f), %s", outcome.Signal.Direction, outcome.Signal.Strength, status),
		Fields: []Field{
			{Name: "Price", Value: fmt.Sprintf("%.2f", outcome.Price), Inline: true},
			{Name: "Equity", Value: fmt.Sprintf("%.2f", outcome.Equity), Inline: true},
		},
		Timestamp: outcome.Timestamp,
	})
}

// SendTrade reports a completed trade.
func (m *MultiNotifier) SendTrade(ctx context.Context, record *models.TradeRecord) error {
	return m.send(ctx, Notification{
		Type:    TypeTrade,
		Title:   fmt.Sprintf("Position Closed (%s)", record.ExitReason),
		Message: fmt.Sprintf("%s %s closed", record.Instrument, record.Side),
		Fields: []Field{
			{Name: "Trade ID", Value: record.ID, Inline: false},
			{Name: "Entry", Value: fmt.Sprintf("%.2f", record.EntryPrice), Inline: true},
			{Name: "Exit", Value: fmt.Sprintf("%.2f", record.ExitPrice), Inline: true},
			{Name: "P&L", Value: fmt.Sprintf("%.2f (%.2f%%)", record.PnL, record.PnLPct), Inline: true},
		},
		Timestamp: record.ExitTime,
	})
}

// SendBreaker reports a drawdown breaker trip.
func (m *MultiNotifier) SendBreaker(ctx context.Context, instrument string, equity, peak float64) error {
	drawdown := 0.0
	if peak > 0 {
		drawdown = (peak - equity) / peak * 100
	}
	return m.send(ctx, Notification{
		Type:    TypeBreaker,
		Title:   "ALERT: Drawdown Breaker Tripped",
		Message: fmt.Sprintf("Trading on %s is paused until an explicit resume.", instrument),
		Fields: []Field{
			{Name: "Equity", Value: fmt.Sprintf("%.2f", equity), Inline: true},
			{Name: "Peak", Value: fmt.Sprintf("%.2f", peak), Inline: true},
			{Name: "Drawdown", Value: fmt.Sprintf("%.2f%%", drawdown), Inline: true},
		},
	})
}

// SendError reports an operational error.
func (m *MultiNotifier) SendError(ctx context.Context, err error, context string) error {
	return m.send(ctx, Notification{
		Type:    TypeError,
		Title:   "Error",
		Message: fmt.Sprintf("%s: %v", context, err),
	})
}
