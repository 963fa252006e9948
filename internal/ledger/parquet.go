package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"hybrid-trader/internal/errors"
	"hybrid-trader/internal/models"
	"hybrid-trader/pkg/utils"
)

// tradeRow is the columnar schema for one trade record. The schema is
// stable: fields are only ever added, never renamed or removed.
type tradeRow struct {
	ID         string  `parquet:"name=trade_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Instrument string  `parquet:"name=instrument, type=BYTE_ARRAY, convertedtype=UTF8"`
	Side       string  `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	EntryPrice float64 `parquet:"name=entry_price, type=DOUBLE"`
	ExitPrice  float64 `parquet:"name=exit_price, type=DOUBLE"`
	EntryTime  int64   `parquet:"name=entry_time, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	ExitTime   int64   `parquet:"name=exit_time, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	ExitReason string  `parquet:"name=exit_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	PnLPct     float64 `parquet:"name=pnl_pct, type=DOUBLE"`
	PnL        float64 `parquet:"name=pnl, type=DOUBLE"`
}

func toRow(r models.TradeRecord) tradeRow {
	return tradeRow{
		ID:         r.ID,
		Instrument: r.Instrument,
		Side:       string(r.Side),
		EntryPrice: r.EntryPrice,
		ExitPrice:  r.ExitPrice,
		EntryTime:  r.EntryTime.UnixMicro(),
		ExitTime:   r.ExitTime.UnixMicro(),
		ExitReason: string(r.ExitReason),
		PnLPct:     r.PnLPct,
		PnL:        r.PnL,
	}
}

func fromRow(r tradeRow) models.TradeRecord {
	return models.TradeRecord{
		ID:         r.ID,
		Instrument: r.Instrument,
		Side:       models.Side(r.Side),
		EntryPrice: r.EntryPrice,
		ExitPrice:  r.ExitPrice,
		EntryTime:  time.UnixMicro(r.EntryTime).UTC(),
		ExitTime:   time.UnixMicro(r.ExitTime).UTC(),
		ExitReason: models.ExitReason(r.ExitReason),
		PnLPct:     r.PnLPct,
		PnL:        r.PnL,
	}
}

// ParquetLedger persists each trade record as a numbered parquet segment in
// a directory. Segments are written to a temp file and renamed into place,
// so concurrent readers never see a partial record, and a mutex serializes
// physical writes. How segments are packed or compacted downstream is an
// external packaging concern; only the append-only guarantee lives here.
type ParquetLedger struct {
	dir   string
	mu    sync.Mutex
	seq   uint64
	retry utils.RetryConfig
}

// NewParquetLedger opens (or creates) a ledger directory, resuming the
// segment sequence from whatever is already there.
func NewParquetLedger(dir string) (*ParquetLedger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating ledger directory")
	}

	l := &ParquetLedger{
		dir:   dir,
		retry: utils.DefaultRetryConfig(),
	}

	names, err := l.segments()
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		last := names[len(names)-1]
		var n uint64
		if _, err := fmt.Sscanf(last, "%012d.parquet", &n); err == nil {
			l.seq = n
		}
	}

	return l, nil
}

// Append durably writes one record. Transient write failures are retried
// with backoff before surfacing as a LedgerWriteError.
func (l *ParquetLedger) Append(record models.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := fmt.Sprintf("%012d.parquet", l.seq+1)
	final := filepath.Join(l.dir, name)
	tmp := final + ".tmp"

	err := utils.Retry(context.Background(), l.retry, func() error {
		return l.writeSegment(tmp, final, record)
	})
	if err != nil {
		os.Remove(tmp)
		return errors.NewLedgerWriteError(final, err)
	}

	l.seq++
	return nil
}

func (l *ParquetLedger) writeSegment(tmp, final string, record models.TradeRecord) error {
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("opening segment: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(tradeRow), 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	row := toRow(record)
	if err := pw.Write(row); err != nil {
		fw.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalizing segment: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing segment: %w", err)
	}

	// Rename is the commit point: readers only ever see complete segments.
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("committing segment: %w", err)
	}
	return nil
}

// ReadAll returns every record in insertion order.
func (l *ParquetLedger) ReadAll() ([]models.TradeRecord, error) {
	var out []models.TradeRecord
	err := l.Scan(func(r models.TradeRecord) bool {
		out = append(out, r)
		return true
	})
	return out, err
}

// Scan streams records in insertion order until fn returns false. Reads do
// not take the write lock; committed segments are immutable.
func (l *ParquetLedger) Scan(fn func(models.TradeRecord) bool) error {
	names, err := l.segments()
	if err != nil {
		return err
	}

	for _, name := range names {
		records, err := l.readSegment(filepath.Join(l.dir, name))
		if err != nil {
			return err
		}
		for _, r := range records {
			if !fn(r) {
				return nil
			}
		}
	}
	return nil
}

func (l *ParquetLedger) readSegment(path string) ([]models.TradeRecord, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening ledger segment %s", path)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(tradeRow), 1)
	if err != nil {
		return nil, errors.Wrapf(err, "reading ledger segment %s", path)
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	rows := make([]tradeRow, num)
	if err := pr.Read(&rows); err != nil {
		return nil, errors.Wrapf(err, "decoding ledger segment %s", path)
	}

	out := make([]models.TradeRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (l *ParquetLedger) segments() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing ledger directory")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		names = append(names, e.Name())
	}
	sortSegments(names)
	return names, nil
}

// Close is a no-op: every append is already durable on return.
func (l *ParquetLedger) Close() error {
	return nil
}
