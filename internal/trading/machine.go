// Package trading provides the position state machine, the orchestrator
// driving the per-cycle decision loop, and backtest replay.
package trading

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/ledger"
	"hybrid-trader/internal/models"
	"hybrid-trader/internal/risk"
)

// State is the position lifecycle state for an instrument.
type State string

const (
	StateFlat State = "FLAT"
	StateOpen State = "OPEN"
)

// tradeIDNamespace makes trade IDs a pure function of the trade itself, so
// a replay over identical inputs produces identical records.
var tradeIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Machine tracks the lifecycle of at most one open position for a single
// instrument. It is not safe for concurrent use; the orchestrator guards it
// with the per-instrument cycle lock.
type Machine struct {
	instrument string
	state      State
	position   *models.Position

	risk   *risk.Controller
	sizer  risk.Sizer
	ledger ledger.TradeLedger
	logger zerolog.Logger
}

// NewMachine creates a state machine for one instrument, starting flat.
func NewMachine(instrument string, rc *risk.Controller, sizer risk.Sizer, lg ledger.TradeLedger, logger zerolog.Logger) *Machine {
	return &Machine{
		instrument: instrument,
		state:      StateFlat,
		risk:       rc,
		sizer:      sizer,
		ledger:     lg,
		logger:     logger.With().Str("instrument", instrument).Logger(),
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// Position returns a copy of the open position, or nil when flat.
func (m *Machine) Position() *models.Position {
	if m.position == nil {
		return nil
	}
	p := *m.position
	return &p
}

// StepResult describes what one cycle did to the machine.
type StepResult struct {
	State   State
	Verdict risk.Verdict
	Opened  *models.Position
	Closed  *models.TradeRecord
}

// Step runs one decision cycle: risk evaluation first for an open position,
// then the fused signal for a reversal or a new entry. Risk exits always
// take precedence over signal-driven action within the same cycle.
func (m *Machine) Step(signal models.FusedSignal, snap models.Snapshot, equity float64, rs *models.RiskState) (*StepResult, error) {
	result := &StepResult{Verdict: risk.Hold}

	if m.state == StateOpen {
		if m.position.PeakEquitySinceEntry < equity {
			m.position.PeakEquitySinceEntry = equity
		}

		verdict := m.risk.Evaluate(m.position, snap.Price, equity, rs)
		result.Verdict = verdict
		if verdict.Action == risk.ActionClose {
			record, err := m.close(verdict.Reason, snap.Price, snap.Timestamp)
			if err != nil {
				return nil, err
			}
			result.Closed = record
			result.State = m.state
			return result, nil
		}

		// Risk held; a strong opposite signal closes and reopens in the
		// same cycle so the reversal never leaves a transiently flat gap.
		if signal.Direction.Opposes(m.position.Side) {
			record, err := m.close(models.ExitSignalReversal, snap.Price, snap.Timestamp)
			if err != nil {
				return nil, err
			}
			result.Closed = record

			if !rs.TradingPaused {
				pos, err := m.open(sideFor(signal.Direction), snap, equity)
				if err != nil {
					return nil, err
				}
				result.Opened = pos
			}
		}

		result.State = m.state
		return result, nil
	}

	// Flat: the high-water mark still tracks every equity observation, and
	// a breach while flat pauses entries exactly like one mid-position.
	m.risk.UpdateEquity(equity, rs)

	if signal.Direction != models.DirectionFlat && !rs.TradingPaused {
		pos, err := m.open(sideFor(signal.Direction), snap, equity)
		if err != nil {
			return nil, err
		}
		result.Opened = pos
	}

	result.State = m.state
	return result, nil
}

// ForceClose closes the open position at the given price with a MANUAL exit.
func (m *Machine) ForceClose(price float64, at time.Time) (*models.TradeRecord, error) {
	if m.state != StateOpen {
		return nil, errors.NewInconsistentStateError(m.instrument, string(m.state), "close requested with no open position")
	}
	return m.close(models.ExitManual, price, at)
}

func (m *Machine) open(side models.Side, snap models.Snapshot, equity float64) (*models.Position, error) {
	if m.state == StateOpen {
		return nil, errors.NewInconsistentStateError(m.instrument, string(m.state), "open requested with position already open")
	}

	size := m.sizer.Size(equity, snap.Price)
	if size <= 0 {
		return nil, errors.NewInconsistentStateError(m.instrument, string(m.state), fmt.Sprintf("sizing produced %.6f units", size))
	}

	stopLoss, takeProfit := m.risk.EntryLevels(side, snap.Price, snap.ATR)

	pos := &models.Position{
		Instrument:           m.instrument,
		Side:                 side,
		EntryPrice:           snap.Price,
		EntryTime:            snap.Timestamp,
		Size:                 size,
		StopLossPrice:        stopLoss,
		TakeProfitPrice:      takeProfit,
		ATRAtEntry:           snap.ATR,
		PeakEquitySinceEntry: equity,
	}

	m.position = pos
	m.state = StateOpen

	p := *pos
	return &p, nil
}

// close emits the terminal trade record and, only once the ledger append
// succeeds, commits the transition back to flat. A failed append leaves the
// position open so no close ever goes unrecorded.
func (m *Machine) close(reason models.ExitReason, price float64, at time.Time) (*models.TradeRecord, error) {
	if m.state != StateOpen {
		return nil, errors.NewInconsistentStateError(m.instrument, string(m.state), "close requested with no open position")
	}

	pos := m.position

	var pnlPct float64
	switch pos.Side {
	case models.SideLong:
		pnlPct = (price - pos.EntryPrice) / pos.EntryPrice * 100
	case models.SideShort:
		pnlPct = (pos.EntryPrice - price) / pos.EntryPrice * 100
	}
	pnl := pnlPct / 100 * pos.EntryPrice * pos.Size

	record := models.TradeRecord{
		ID:         tradeID(pos, price, at, reason),
		Instrument: pos.Instrument,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		EntryTime:  pos.EntryTime,
		ExitTime:   at,
		ExitReason: reason,
		PnLPct:     pnlPct,
		PnL:        pnl,
	}

	if err := m.ledger.Append(record); err != nil {
		m.logger.Error().Err(err).Str("reason", string(reason)).Msg("Ledger append failed, close not committed")
		return nil, err
	}

	m.position = nil
	m.state = StateFlat
	return &record, nil
}

func sideFor(d models.Direction) models.Side {
	if d == models.DirectionShort {
		return models.SideShort
	}
	return models.SideLong
}

func tradeID(pos *models.Position, exitPrice float64, at time.Time, reason models.ExitReason) string {
	seed := fmt.Sprintf("%s|%s|%d|%d|%s|%.8f|%.8f",
		pos.Instrument, pos.Side, pos.EntryTime.UnixMicro(), at.UnixMicro(), reason, pos.EntryPrice, exitPrice)
	return "TRADE-" + uuid.NewSHA1(tradeIDNamespace, []byte(seed)).String()
}
