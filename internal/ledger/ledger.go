// Package ledger provides the durable, append-only trade record stream.
package ledger

import (
	"sort"
	"sync"

	"hybrid-trader/internal/models"
)

// TradeLedger records completed trades. Appends never overwrite or reorder
// prior records, and a reader never observes a partially written record.
type TradeLedger interface {
	// Append durably records one trade. The caller must not commit the
	// state transition that produced the record until Append returns nil.
	Append(record models.TradeRecord) error

	// ReadAll returns every record in insertion order. Each call re-reads
	// from the start, so the sequence is restartable.
	ReadAll() ([]models.TradeRecord, error)

	// Scan streams records in insertion order until fn returns false.
	Scan(fn func(models.TradeRecord) bool) error

	Close() error
}

// MemoryLedger is an in-memory TradeLedger used by backtests, where replay
// must produce the live trade stream without live side effects.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []models.TradeRecord
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Append records a trade.
func (l *MemoryLedger) Append(record models.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

// ReadAll returns a copy of all records in insertion order.
func (l *MemoryLedger) ReadAll() ([]models.TradeRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.TradeRecord, len(l.records))
	copy(out, l.records)
	return out, nil
}

// Scan streams records in insertion order.
func (l *MemoryLedger) Scan(fn func(models.TradeRecord) bool) error {
	records, err := l.ReadAll()
	if err != nil {
		return err
	}
	for _, r := range records {
		if !fn(r) {
			break
		}
	}
	return nil
}

// Close is a no-op for the in-memory ledger.
func (l *MemoryLedger) Close() error {
	return nil
}

// sortSegments orders ledger segment file names by their sequence prefix.
func sortSegments(names []string) {
	sort.Strings(names)
}
