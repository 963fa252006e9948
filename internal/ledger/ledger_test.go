package ledger

import (
	"fmt"
	"testing"
	"time"

	"hybrid-trader/internal/models"
)

func sampleRecord(i int) models.TradeRecord {
	entry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	return models.TradeRecord{
		ID:         fmt.Sprintf("TRADE-%08d", i),
		Instrument: "BTCUSDT",
		Side:       models.SideLong,
		EntryPrice: 100 + float64(i),
		ExitPrice:  102 + float64(i),
		EntryTime:  entry,
		ExitTime:   entry.Add(30 * time.Minute),
		ExitReason: models.ExitTakeProfit,
		PnLPct:     2,
		PnL:        20,
	}
}

func TestParquetAppendAndReadAll(t *testing.T) {
	dir := t.TempDir()
	l, err := NewParquetLedger(dir)
	if err != nil {
		t.Fatal(err)
	}

	const n = 5
	for i := 0; i < n; i++ {
		if err := l.Append(sampleRecord(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	records, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != n {
		t.Fatalf("got %d records, want %d", len(records), n)
	}
	for i, r := range records {
		want := sampleRecord(i)
		if r != want {
			t.Errorf("record %d = %+v, want %+v", i, r, want)
		}
	}
}

func TestParquetSequenceResumesAfterReopen(t *testing.T) {
	dir := t.TempDir()

	l, err := NewParquetLedger(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := l.Append(sampleRecord(i)); err != nil {
			t.Fatal(err)
		}
	}
	l.Close()

	// Reopen the same directory and keep appending; order must hold.
	l2, err := NewParquetLedger(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := l2.Append(sampleRecord(3)); err != nil {
		t.Fatal(err)
	}

	records, err := l2.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	for i, r := range records {
		if r.ID != sampleRecord(i).ID {
			t.Errorf("record %d out of order: %s", i, r.ID)
		}
	}
}

func TestParquetScanEarlyStop(t *testing.T) {
	dir := t.TempDir()
	l, err := NewParquetLedger(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := l.Append(sampleRecord(i)); err != nil {
			t.Fatal(err)
		}
	}

	var seen int
	err = l.Scan(func(models.TradeRecord) bool {
		seen++
		return seen < 2
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 2 {
		t.Errorf("scan visited %d records, want 2", seen)
	}
}

func TestMemoryLedgerIsolation(t *testing.T) {
	l := NewMemoryLedger()
	if err := l.Append(sampleRecord(0)); err != nil {
		t.Fatal(err)
	}

	records, err := l.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the returned slice must not affect the ledger.
	records[0].ID = "mutated"
	again, _ := l.ReadAll()
	if again[0].ID != sampleRecord(0).ID {
		t.Error("ReadAll must return a copy")
	}
}
