package portlib

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/webclinic017/portlib/date"
)

// ErrBadShape reports a ledger file whose columns do not match the expected
// header. Callers treat the file as empty and log a warning.
var ErrBadShape = errors.New("unexpected columns")

// Repository is an append-only row store for one ledger. Implementations can
// be swapped without touching the ledger or valuation logic.
type Repository[T any] interface {
	// Load returns every persisted row. A store whose shape is not
	// understood returns an error wrapping ErrBadShape.
	Load() ([]T, error)
	// Append persists new rows at the end of the store.
	Append(rows ...T) error
	// Overwrite replaces the whole store with the given rows.
	Overwrite(rows []T) error
	// Reset clears the store back to an empty, schema-valid state.
	Reset() error
}

// csvFile handles the mechanics shared by the CSV-backed repositories: a
// single file with a fixed header, created empty on first use.
type csvFile struct {
	path   string
	header []string
}

// ensure creates the file with its header when it does not exist yet.
func (f *csvFile) ensure() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("could not create directory for %q: %w", f.path, err)
	}
	return f.writeAll(nil)
}

// readAll returns every data row, after checking the header.
func (f *csvFile) readAll() ([][]string, error) {
	if err := f.ensure(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1 // header check below is the real shape gate
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", f.path, err)
	}
	if len(records) == 0 || !slices.Equal(records[0], f.header) {
		return nil, fmt.Errorf("%q: %w: want %v", f.path, ErrBadShape, f.header)
	}
	for i, rec := range records[1:] {
		if len(rec) != len(f.header) {
			return nil, fmt.Errorf("%q: row %d: %w: want %d columns got %d",
				f.path, i+1, ErrBadShape, len(f.header), len(rec))
		}
	}
	return records[1:], nil
}

// writeAll atomically replaces the file with the header plus the given rows.
func (f *csvFile) writeAll(rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("could not create temp file for %q: %w", f.path, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(f.header); err == nil {
		err = w.WriteAll(rows)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("could not write %q: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("could not close temp file for %q: %w", f.path, err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// appendRows appends rows at the end of the file, creating it when needed.
func (f *csvFile) appendRows(rows [][]string) error {
	if err := f.ensure(); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open %q for append: %w", f.path, err)
	}
	defer file.Close()
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("could not append to %q: %w", f.path, err)
	}
	return nil
}

// transactionHeader is the on-disk shape of transactions.csv.
var transactionHeader = []string{"Date", "Ticker", "Type", "Quantity", "Price", "Fees", "Currency"}

// csvTransactionRepository persists transactions in transactions.csv.
type csvTransactionRepository struct{ file csvFile }

// NewCSVTransactionRepository returns a transaction store backed by
// transactions.csv under dir.
func NewCSVTransactionRepository(dir string) Repository[Transaction] {
	return &csvTransactionRepository{file: csvFile{
		path:   filepath.Join(dir, "transactions.csv"),
		header: transactionHeader,
	}}
}

func (r *csvTransactionRepository) Load() ([]Transaction, error) {
	records, err := r.file.readAll()
	if err != nil {
		return nil, err
	}
	rows := make([]Transaction, 0, len(records))
	for i, rec := range records {
		t, err := decodeTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("%q: row %d: %w", r.file.path, i+1, err)
		}
		rows = append(rows, t)
	}
	return rows, nil
}

func (r *csvTransactionRepository) Append(rows ...Transaction) error {
	out := make([][]string, 0, len(rows))
	for _, t := range rows {
		out = append(out, encodeTransaction(t))
	}
	return r.file.appendRows(out)
}

func (r *csvTransactionRepository) Overwrite(rows []Transaction) error {
	out := make([][]string, 0, len(rows))
	for _, t := range rows {
		out = append(out, encodeTransaction(t))
	}
	return r.file.writeAll(out)
}

func (r *csvTransactionRepository) Reset() error { return r.file.writeAll(nil) }

func encodeTransaction(t Transaction) []string {
	return []string{
		t.Date.String(),
		t.Ticker,
		string(t.Type),
		t.Quantity.String(),
		t.Price.String(),
		t.Fees.String(),
		t.Currency,
	}
}

func decodeTransaction(rec []string) (Transaction, error) {
	var t Transaction
	on, err := date.Parse(rec[0])
	if err != nil {
		return t, err
	}
	typ, err := ParseTrxType(rec[2])
	if err != nil {
		return t, err
	}
	qty, err := decimal.NewFromString(rec[3])
	if err != nil {
		return t, fmt.Errorf("invalid quantity %q: %w", rec[3], err)
	}
	price, err := decimal.NewFromString(rec[4])
	if err != nil {
		return t, fmt.Errorf("invalid price %q: %w", rec[4], err)
	}
	fees, err := decimal.NewFromString(rec[5])
	if err != nil {
		return t, fmt.Errorf("invalid fees %q: %w", rec[5], err)
	}
	return Transaction{
		Date:     on,
		Ticker:   rec[1],
		Type:     typ,
		Quantity: qty,
		Price:    price,
		Fees:     fees,
		Currency: rec[6],
	}, nil
}

// cashHeader is the on-disk shape of cash.csv.
var cashHeader = []string{"Date", "Direction", "Amount"}

// csvCashRepository persists cash changes in cash.csv.
type csvCashRepository struct{ file csvFile }

// NewCSVCashRepository returns a cash change store backed by cash.csv under dir.
func NewCSVCashRepository(dir string) Repository[CashChange] {
	return &csvCashRepository{file: csvFile{
		path:   filepath.Join(dir, "cash.csv"),
		header: cashHeader,
	}}
}

func (r *csvCashRepository) Load() ([]CashChange, error) {
	records, err := r.file.readAll()
	if err != nil {
		return nil, err
	}
	rows := make([]CashChange, 0, len(records))
	for i, rec := range records {
		c, err := decodeCashChange(rec)
		if err != nil {
			return nil, fmt.Errorf("%q: row %d: %w", r.file.path, i+1, err)
		}
		rows = append(rows, c)
	}
	return rows, nil
}

func (r *csvCashRepository) Append(rows ...CashChange) error {
	out := make([][]string, 0, len(rows))
	for _, c := range rows {
		out = append(out, encodeCashChange(c))
	}
	return r.file.appendRows(out)
}

func (r *csvCashRepository) Overwrite(rows []CashChange) error {
	out := make([][]string, 0, len(rows))
	for _, c := range rows {
		out = append(out, encodeCashChange(c))
	}
	return r.file.writeAll(out)
}

func (r *csvCashRepository) Reset() error { return r.file.writeAll(nil) }

func encodeCashChange(c CashChange) []string {
	return []string{c.Date.String(), string(c.Direction), c.Amount.String()}
}

func decodeCashChange(rec []string) (CashChange, error) {
	var c CashChange
	on, err := date.Parse(rec[0])
	if err != nil {
		return c, err
	}
	dir, err := ParseDirection(rec[1])
	if err != nil {
		return c, err
	}
	amount, err := decimal.NewFromString(rec[2])
	if err != nil {
		return c, fmt.Errorf("invalid amount %q: %w", rec[2], err)
	}
	return CashChange{Date: on, Direction: dir, Amount: amount}, nil
}
