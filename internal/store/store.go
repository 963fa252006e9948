// Package store persists decision outcomes and the equity curve for the
// status and reporting commands.
package store

import (
	"context"
	"time"

	"hybrid-trader/internal/models"
)

// DataStore defines the interface for decision history persistence. The
// trade ledger is the source of truth for completed trades; the store keeps
// the queryable cycle-by-cycle history around it.
type DataStore interface {
	// Outcomes
	SaveOutcome(ctx context.Context, outcome *models.DecisionOutcome) error
	GetOutcomes(ctx context.Context, filter OutcomeFilter) ([]models.DecisionOutcome, error)

	// Equity curve
	SaveEquityPoint(ctx context.Context, instrument string, at time.Time, equity float64) error
	GetEquityCurve(ctx context.Context, instrument string, from, to time.Time) ([]EquityObservation, error)

	// Lifecycle
	Close() error
}

// OutcomeFilter represents filters for querying decision outcomes.
type OutcomeFilter struct {
	Instrument string
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
}

// EquityObservation is one persisted point on the equity curve.
type EquityObservation struct {
	Instrument string
	Timestamp  time.Time
	Equity     float64
}
