package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"hybrid-trader/internal/models"
)

type recordingChannel struct {
	name    string
	enabled bool
	err     error
	sent    []Notification
}

func (c *recordingChannel) Name() string    { return c.name }
func (c *recordingChannel) IsEnabled() bool { return c.enabled }
func (c *recordingChannel) Send(_ context.Context, n Notification) error {
	c.sent = append(c.sent, n)
	return c.err
}

func sampleTrade() *models.TradeRecord {
	return &models.TradeRecord{
		ID:         "TRADE-test",
		Instrument: "BTCUSDT",
		Side:       models.SideLong,
		EntryPrice: 100,
		ExitPrice:  103,
		ExitTime:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ExitReason: models.ExitTakeProfit,
		PnLPct:     3,
		PnL:        30,
	}
}

func TestLevelFiltering(t *testing.T) {
	outcome := &models.DecisionOutcome{Instrument: "BTCUSDT"}

	cases := []struct {
		level     Level
		wantTypes []Type
		skipTypes []Type
	}{
		{LevelAll, []Type{TypeTrade, TypeOutcome, TypeBreaker, TypeError}, nil},
		{LevelTradesOnly, []Type{TypeTrade, TypeBreaker}, []Type{TypeOutcome, TypeError}},
		{LevelErrorsOnly, []Type{TypeError, TypeBreaker}, []Type{TypeTrade, TypeOutcome}},
	}

	for _, tc := range cases {
		t.Run(string(tc.level), func(t *testing.T) {
			ch := &recordingChannel{name: "test", enabled: true}
			m := NewMultiNotifier(tc.level, ch)
			ctx := context.Background()

			if err := m.SendTrade(ctx, sampleTrade()); err != nil {
				t.Fatal(err)
			}
			if err := m.SendOutcome(ctx, outcome); err != nil {
				t.Fatal(err)
			}
			if err := m.SendBreaker(ctx, "BTCUSDT", 9000, 10000); err != nil {
				t.Fatal(err)
			}
			if err := m.SendError(ctx, errors.New("boom"), "feed"); err != nil {
				t.Fatal(err)
			}

			got := make(map[Type]bool)
			for _, n := range ch.sent {
				got[n.Type] = true
			}
			for _, want := range tc.wantTypes {
				if !got[want] {
					t.Errorf("level %s dropped %s", tc.level, want)
				}
			}
			for _, skip := range tc.skipTypes {
				if got[skip] {
					t.Errorf("level %s delivered %s", tc.level, skip)
				}
			}
		})
	}
}

func TestDisabledChannelIsSkipped(t *testing.T) {
	enabled := &recordingChannel{name: "on", enabled: true}
	disabled := &recordingChannel{name: "off", enabled: false}
	m := NewMultiNotifier(LevelAll, enabled, disabled)

	if err := m.SendTrade(context.Background(), sampleTrade()); err != nil {
		t.Fatal(err)
	}
	if len(enabled.sent) != 1 {
		t.Errorf("enabled channel got %d notifications, want 1", len(enabled.sent))
	}
	if len(disabled.sent) != 0 {
		t.Errorf("disabled channel got %d notifications, want 0", len(disabled.sent))
	}
}

func TestChannelFailureDoesNotBlockOthers(t *testing.T) {
	failing := &recordingChannel{name: "bad", enabled: true, err: errors.New("webhook down")}
	healthy := &recordingChannel{name: "good", enabled: true}
	m := NewMultiNotifier(LevelAll, failing, healthy)

	err := m.SendTrade(context.Background(), sampleTrade())
	if err == nil {
		t.Fatal("first channel failure must surface")
	}
	if len(healthy.sent) != 1 {
		t.Error("failure on one channel must not stop delivery to the rest")
	}
}
