package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Decision outcomes, one row per cycle
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instrument TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		direction TEXT NOT NULL,
		strength REAL NOT NULL,
		price REAL NOT NULL,
		equity REAL NOT NULL,
		paused INTEGER NOT NULL DEFAULT 0,
		opened_side TEXT,
		opened_entry REAL,
		closed_trade_id TEXT,
		closed_reason TEXT,
		closed_pnl REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Equity curve observations
	CREATE TABLE IF NOT EXISTS equity_curve (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instrument TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		equity REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(instrument, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_instrument ON outcomes(instrument);
	CREATE INDEX IF NOT EXISTS idx_outcomes_timestamp ON outcomes(timestamp);
	CREATE INDEX IF NOT EXISTS idx_equity_instrument ON equity_curve(instrument);
	CREATE INDEX IF NOT EXISTS idx_equity_timestamp ON equity_curve(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveOutcome records one decision cycle's outcome.
func (s *SQLiteStore) SaveOutcome(ctx context.Context, outcome *models.DecisionOutcome) error {
	var openedSide sql.NullString
	var openedEntry sql.NullFloat64
	if outcome.Opened != nil {
		openedSide = sql.NullString{String: string(outcome.Opened.Side), Valid: true}
		openedEntry = sql.NullFloat64{Float64: outcome.Opened.EntryPrice, Valid: true}
	}

	var closedID, closedReason sql.NullString
	var closedPnL sql.NullFloat64
	if outcome.Closed != nil {
		closedID = sql.NullString{String: outcome.Closed.ID, Valid: true}
		closedReason = sql.NullString{String: string(outcome.Closed.ExitReason), Valid: true}
		closedPnL = sql.NullFloat64{Float64: outcome.Closed.PnL, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (instrument, timestamp, direction, strength, price, equity, paused,
			opened_side, opened_entry, closed_trade_id, closed_reason, closed_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.Instrument, outcome.Timestamp, string(outcome.Signal.Direction), outcome.Signal.Strength,
		outcome.Price, outcome.Equity, boolToInt(outcome.Paused),
		openedSide, openedEntry, closedID, closedReason, closedPnL,
	)
	if err != nil {
		return errors.NewDatabaseError("save outcome", err)
	}
	return nil
}

// GetOutcomes returns decision outcomes matching the filter, newest first.
// Opened and Closed are rehydrated only with the fields the store keeps;
// full trade records live in the ledger.
func (s *SQLiteStore) GetOutcomes(ctx context.Context, filter OutcomeFilter) ([]models.DecisionOutcome, error) {
	query := `SELECT instrument, timestamp, direction, strength, price, equity, paused,
		opened_side, opened_entry, closed_trade_id, closed_reason, closed_pnl
		FROM outcomes WHERE 1=1`
	var args []interface{}

	if filter.Instrument != "" {
		query += " AND instrument = ?"
		args = append(args, filter.Instrument)
	}
	if !filter.StartDate.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseError("query outcomes", err)
	}
	defer rows.Close()

	var outcomes []models.DecisionOutcome
	for rows.Next() {
		var o models.DecisionOutcome
		var direction string
		var paused int
		var openedSide, closedID, closedReason sql.NullString
		var openedEntry, closedPnL sql.NullFloat64

		if err := rows.Scan(&o.Instrument, &o.Timestamp, &direction, &o.Signal.Strength,
			&o.Price, &o.Equity, &paused,
			&openedSide, &openedEntry, &closedID, &closedReason, &closedPnL); err != nil {
			return nil, errors.NewDatabaseError("scan outcome", err)
		}

		o.Signal.Direction = models.Direction(direction)
		o.Paused = paused != 0
		if openedSide.Valid {
			o.Opened = &models.Position{
				Instrument: o.Instrument,
				Side:       models.Side(openedSide.String),
				EntryPrice: openedEntry.Float64,
			}
		}
		if closedID.Valid {
			o.Closed = &models.TradeRecord{
				ID:         closedID.String,
				Instrument: o.Instrument,
				ExitReason: models.ExitReason(closedReason.String),
				PnL:        closedPnL.Float64,
			}
		}

		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// SaveEquityPoint records one equity observation. Re-observing the same
// timestamp overwrites, so replays stay idempotent.
func (s *SQLiteStore) SaveEquityPoint(ctx context.Context, instrument string, at time.Time, equity float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equity_curve (instrument, timestamp, equity)
		VALUES (?, ?, ?)
		ON CONFLICT(instrument, timestamp) DO UPDATE SET equity = excluded.equity`,
		instrument, at, equity,
	)
	if err != nil {
		return errors.NewDatabaseError("save equity point", err)
	}
	return nil
}

// GetEquityCurve returns equity observations in chronological order.
func (s *SQLiteStore) GetEquityCurve(ctx context.Context, instrument string, from, to time.Time) ([]EquityObservation, error) {
	var conds []string
	var args []interface{}

	conds = append(conds, "instrument = ?")
	args = append(args, instrument)
	if !from.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, to)
	}

	query := "SELECT instrument, timestamp, equity FROM equity_curve WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseError("query equity curve", err)
	}
	defer rows.Close()

	var points []EquityObservation
	for rows.Next() {
		var p EquityObservation
		if err := rows.Scan(&p.Instrument, &p.Timestamp, &p.Equity); err != nil {
			return nil, errors.NewDatabaseError("scan equity point", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
