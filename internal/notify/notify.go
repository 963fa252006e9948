// Package notify delivers decision outcomes and trade events to the
// external notification collaborators.
package notify

import (
	"context"
	"time"

	"hybrid-trader/internal/models"
)

// Notifier receives decision outcomes and trade events for display.
type Notifier interface {
	SendOutcome(ctx context.Context, outcome *models.DecisionOutcome) error
	SendTrade(ctx context.Context, record *models.TradeRecord) error
	SendBreaker(ctx context.Context, instrument string, equity, peak float64) error
	SendError(ctx context.Context, err error, context string) error
}

// Channel is a single delivery target for notifications.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      Type
	Title     string
	Message   string
	Fields    []Field
	Timestamp time.Time
}

// Field is a titled value rendered inside a notification.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Type represents the type of notification.
type Type string

const (
	TypeTrade   Type = "trade"
	TypeOutcome Type = "outcome"
	TypeBreaker Type = "breaker"
	TypeError   Type = "error"
)

// Level filters which notification types are delivered.
type Level string

const (
	LevelAll        Level = "all"
	LevelTradesOnly Level = "trades_only"
	LevelErrorsOnly Level = "errors_only"
)

func (l Level) allows(t Type) bool {
	switch l {
	case LevelTradesOnly:
		return t == TypeTrade || t == TypeBreaker
	case LevelErrorsOnly:
		return t == TypeError || t == TypeBreaker
	default:
		return true
	}
}

// Nop is a Notifier that discards everything. Backtests run with Nop so a
// replay has no external side effects.
type Nop struct{}

func (Nop) SendOutcome(context.Context, *models.DecisionOutcome) error        { return nil }
func (Nop) SendTrade(context.Context, *models.TradeRecord) error              { return nil }
func (Nop) SendBreaker(context.Context, string, float64, float64) error       { return nil }
func (Nop) SendError(context.Context, error, string) error                    { return nil }
