package portlib

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/webclinic017/portlib/date"
)

// Source fetches market data from a vendor and persists it as Date-indexed
// CSV series in the data directory. Callers re-read from disk.
type Source interface {
	GetPrices(ctx context.Context, ticker string) error
	GetFx(ctx context.Context, pair string) error
	GetSplits(ctx context.Context, ticker string) (*date.History[float64], error)
	GetDividends(ctx context.Context, ticker string, from, to date.Date) error
	GetBalanceSheet(ctx context.Context, ticker string) error
	GetCashFlow(ctx context.Context, ticker string) error
	GetIncomeStatement(ctx context.Context, ticker string) error
}

// DataReader reads the Date-indexed series persisted by a Source, fetching a
// series on first use when it is missing from the data directory.
type DataReader struct {
	dir    string
	source Source
}

// NewDataReader returns a reader over the given data directory.
func NewDataReader(dir string, source Source) *DataReader {
	return &DataReader{dir: dir, source: source}
}

// Source returns the vendor behind this reader.
func (r *DataReader) Source() Source { return r.source }

// Prices returns the closing price series of the ticker, fetching it when
// not yet persisted.
func (r *DataReader) Prices(ctx context.Context, ticker string) (*date.History[float64], error) {
	path := filepath.Join(r.dir, "prices", ticker+".csv")
	return r.series(ctx, path, func(ctx context.Context) error {
		return r.source.GetPrices(ctx, ticker)
	})
}

// Fx returns the daily closing-rate series of the 6-character pair, fetching
// it when not yet persisted.
func (r *DataReader) Fx(ctx context.Context, pair string) (*date.History[float64], error) {
	path := filepath.Join(r.dir, "fx", pair+".csv")
	return r.series(ctx, path, func(ctx context.Context) error {
		return r.source.GetFx(ctx, pair)
	})
}

// Dividends returns the per-share dividend series of the ticker, fetching it
// when not yet persisted.
func (r *DataReader) Dividends(ctx context.Context, ticker string, from, to date.Date) (*date.History[float64], error) {
	path := filepath.Join(r.dir, "dividends", ticker+".csv")
	return r.series(ctx, path, func(ctx context.Context) error {
		return r.source.GetDividends(ctx, ticker, from, to)
	})
}

// series reads the persisted series at path, calling fetch once when the
// file does not exist.
func (r *DataReader) series(ctx context.Context, path string, fetch func(context.Context) error) (*date.History[float64], error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := fetch(ctx); err != nil {
			return nil, err
		}
	}
	return ReadSeries(path)
}

// LastDataPoint returns the most recent date for which market data in the
// base currency can exist: the latest point across the persisted fx series
// of pairs quoting the base currency, or the last business day when nothing
// is persisted yet.
func (r *DataReader) LastDataPoint(baseCurrency string) date.Date {
	last := date.Date{}
	entries, err := os.ReadDir(filepath.Join(r.dir, "fx"))
	if err == nil {
		for _, e := range entries {
			pair := strings.TrimSuffix(e.Name(), ".csv")
			if len(pair) != 6 || !strings.HasSuffix(pair, baseCurrency) {
				continue
			}
			h, err := ReadSeries(filepath.Join(r.dir, "fx", e.Name()))
			if err != nil {
				continue
			}
			if on, _ := h.Latest(); last.IsZero() || on.After(last) {
				last = on
			}
		}
	}
	if last.IsZero() {
		return date.LastBusinessDay(date.Today())
	}
	return last
}

// ReadSeries reads a two-column Date,Value CSV file into a History.
func ReadSeries(path string) (*date.History[float64], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open series %q: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read series %q: %w", path, err)
	}
	h := &date.History[float64]{}
	if len(records) == 0 {
		return h, nil
	}
	for i, rec := range records[1:] { // skip header
		if len(rec) < 2 {
			return nil, fmt.Errorf("series %q: row %d: want 2 columns got %d", path, i+1, len(rec))
		}
		on, err := date.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("series %q: row %d: %w", path, i+1, err)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("series %q: row %d: invalid value %q: %w", path, i+1, rec[1], err)
		}
		h.Append(on, v)
	}
	return h, nil
}

// WriteSeries persists a History as a two-column CSV file with the given
// value column name, creating parent directories as needed.
func WriteSeries(path, column string, h *date.History[float64]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create directory for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create series %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", column}); err != nil {
		return err
	}
	for on, v := range h.Values() {
		if err := w.Write([]string{on.String(), strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
