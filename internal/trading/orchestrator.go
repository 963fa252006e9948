package trading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/fusion"
	"hybrid-trader/internal/ledger"
	"hybrid-trader/internal/logging"
	"hybrid-trader/internal/models"
	"hybrid-trader/internal/notify"
	"hybrid-trader/internal/risk"
)

// Orchestrator drives the fuse, evaluate, transition, persist pass for each
// decision cycle and exposes pause/resume and backtest replay to the
// command layer.
type Orchestrator struct {
	fusion   *fusion.Engine
	risk     *risk.Controller
	sizer    risk.Sizer
	ledger   ledger.TradeLedger
	notifier notify.Notifier
	logger   zerolog.Logger

	mu    sync.Mutex
	slots map[string]*instrumentSlot
}

// instrumentSlot serializes decision cycles for one instrument. The cycle
// lock guarantees at most one cycle in flight per instrument; RiskState is
// only ever touched under it.
type instrumentSlot struct {
	mu        sync.Mutex
	machine   *Machine
	riskState *models.RiskState
	lastTS     time.Time
	lastPrice  float64
	lastEquity float64
	closed     int
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(fe *fusion.Engine, rc *risk.Controller, sizer risk.Sizer, lg ledger.TradeLedger, notifier notify.Notifier, logger zerolog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Orchestrator{
		fusion:   fe,
		risk:     rc,
		sizer:    sizer,
		ledger:   lg,
		notifier: notifier,
		logger:   logger,
		slots:    make(map[string]*instrumentSlot),
	}
}

func (o *Orchestrator) slot(instrument string) *instrumentSlot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.slots[instrument]
	if !ok {
		s = &instrumentSlot{
			machine:   NewMachine(instrument, o.risk, o.sizer, o.ledger, o.logger),
			riskState: &models.RiskState{},
		}
		o.slots[instrument] = s
	}
	return s
}

// RunCycle drives one decision cycle for the snapshot's instrument and
// returns a summary for the notification collaborator. Cycles for the same
// instrument are mutually exclusive; a stale snapshot (timestamp going
// backwards) is rejected before any state is touched.
func (o *Orchestrator) RunCycle(ctx context.Context, snap models.Snapshot, equity float64) (*models.DecisionOutcome, error) {
	outcome, tripped, err := o.runCycleLocked(snap, equity)
	if err != nil {
		return nil, err
	}

	// Notification happens outside the cycle's critical section.
	o.deliver(ctx, outcome, tripped)
	return outcome, nil
}

func (o *Orchestrator) runCycleLocked(snap models.Snapshot, equity float64) (*models.DecisionOutcome, bool, error) {
	if err := snap.Validate(); err != nil {
		return nil, false, err
	}

	s := o.slot(snap.Instrument)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastTS.IsZero() && snap.Timestamp.Before(s.lastTS) {
		return nil, false, errors.NewInvalidInputError("timestamp", snap.Timestamp,
			"snapshot timestamp must be monotonically non-decreasing")
	}

	signal, err := o.fusion.Fuse(snap)
	if err != nil {
		return nil, false, err
	}
	logging.LogSignal(o.logger, snap.Instrument, signal, snap.Price)

	pausedBefore := s.riskState.TradingPaused

	result, err := s.machine.Step(signal, snap, equity, s.riskState)
	if err != nil {
		return nil, false, err
	}

	s.lastTS = snap.Timestamp
	s.lastPrice = snap.Price
	s.lastEquity = equity
	if result.Closed != nil {
		s.closed++
		logging.LogClose(o.logger, result.Closed)
	}
	if result.Opened != nil {
		logging.LogOpen(o.logger, result.Opened)
	}

	// Only the drawdown breaker sets TradingPaused inside a step, so a
	// false-to-true flip here is always a fresh trip, flat or not.
	tripped := !pausedBefore && s.riskState.TradingPaused
	if tripped {
		logging.LogBreaker(o.logger, snap.Instrument, equity, s.riskState.EquityCurvePeak)
	}

	outcome := &models.DecisionOutcome{
		Instrument: snap.Instrument,
		Timestamp:  snap.Timestamp,
		Signal:     signal,
		Price:      snap.Price,
		Equity:     equity,
		Paused:     s.riskState.TradingPaused,
		Opened:     result.Opened,
		Closed:     result.Closed,
	}
	return outcome, tripped, nil
}

func (o *Orchestrator) deliver(ctx context.Context, outcome *models.DecisionOutcome, tripped bool) {
	if tripped {
		if err := o.notifier.SendBreaker(ctx, outcome.Instrument, outcome.Equity, o.EquityPeak(outcome.Instrument)); err != nil {
			o.logger.Warn().Err(err).Msg("Breaker notification failed")
		}
	}
	if outcome.Closed != nil {
		if err := o.notifier.SendTrade(ctx, outcome.Closed); err != nil {
			o.logger.Warn().Err(err).Msg("Trade notification failed")
		}
	}
	if err := o.notifier.SendOutcome(ctx, outcome); err != nil {
		o.logger.Warn().Err(err).Msg("Outcome notification failed")
	}
}

// Pause stops new entries for the instrument. Risk-triggered exits stay
// enabled: paused means no new risk, not frozen positions.
func (o *Orchestrator) Pause(instrument string) {
	s := o.slot(instrument)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.riskState.TradingPaused = true
	o.logger.Warn().Str("instrument", instrument).Msg("Trading paused")
}

// Resume re-enables entries for the instrument. This is the only way a
// pause clears, including one set by the drawdown breaker.
func (o *Orchestrator) Resume(instrument string) {
	s := o.slot(instrument)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.riskState.TradingPaused = false
	o.logger.Info().Str("instrument", instrument).Msg("Trading resumed")
}

// CloseAll closes the instrument's open position, if any, at the last
// observed price with a MANUAL exit reason.
func (o *Orchestrator) CloseAll(ctx context.Context, instrument string) (*models.TradeRecord, error) {
	s := o.slot(instrument)
	s.mu.Lock()

	if s.machine.State() != StateOpen {
		s.mu.Unlock()
		return nil, nil
	}

	record, err := s.machine.ForceClose(s.lastPrice, s.lastTS)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.closed++
	s.mu.Unlock()

	logging.LogClose(o.logger, record)
	if err := o.notifier.SendTrade(ctx, record); err != nil {
		o.logger.Warn().Err(err).Msg("Trade notification failed")
	}
	return record, nil
}

// Status returns a point-in-time view of the instrument's trading state.
func (o *Orchestrator) Status(instrument string) models.Status {
	s := o.slot(instrument)
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.Status{
		Instrument:   instrument,
		Paused:       s.riskState.TradingPaused,
		Equity:       s.lastEquity,
		EquityPeak:   s.riskState.EquityCurvePeak,
		OpenPosition: s.machine.Position(),
		ClosedTrades: s.closed,
		AsOf:         s.lastTS,
	}
}

// EquityPeak returns the instrument's equity high-water mark.
func (o *Orchestrator) EquityPeak(instrument string) float64 {
	s := o.slot(instrument)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.riskState.EquityCurvePeak
}
