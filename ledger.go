package portlib

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/webclinic017/portlib/date"
)

// InsufficientPositionError is returned when a transaction would make the
// cumulative quantity of a ticker negative. Excess carries the number of
// units by which the position falls short.
type InsufficientPositionError struct {
	Ticker string
	Excess decimal.Decimal
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient position in %s: short by %s units", e.Ticker, e.Excess)
}

// TransactionLedger is the append-only record of Buy/Sell/Dividend/Split
// rows for one account. It enforces the no-short-position invariant and
// keeps its in-memory view sorted by date.
type TransactionLedger struct {
	repo         Repository[Transaction]
	transactions []Transaction
}

// NewTransactionLedger loads a ledger from its repository. A store with an
// unexpected shape is logged and treated as empty.
func NewTransactionLedger(repo Repository[Transaction]) (*TransactionLedger, error) {
	l := &TransactionLedger{repo: repo}
	if err := l.Load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Load reloads every row from the repository and re-sorts by date.
func (l *TransactionLedger) Load() error {
	rows, err := l.repo.Load()
	if err != nil {
		if errors.Is(err, ErrBadShape) {
			log.WithError(err).Warn("transaction store has an unexpected shape, treating as empty")
			l.transactions = nil
			return nil
		}
		return err
	}
	l.transactions = rows
	l.stableSort()
	return nil
}

// stableSort keeps same-day rows in insertion order.
func (l *TransactionLedger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Date.Before(l.transactions[j].Date)
	})
}

// Add validates the transaction, enforces the no-short-position invariant,
// and appends the row to the store. On rejection the ledger is unchanged.
// The invariant covers the whole ledger: the ticker's total quantity across
// every existing row plus the new one must stay non-negative, so a backdated
// sell cannot slip under sells already recorded on later dates.
func (l *TransactionLedger) Add(trx Transaction) error {
	if err := trx.Validate(); err != nil {
		return err
	}
	newQty := l.TotalQuantity(trx.Ticker).Add(trx.Quantity)
	if newQty.IsNegative() {
		return &InsufficientPositionError{Ticker: trx.Ticker, Excess: newQty.Neg()}
	}
	if err := l.repo.Append(trx); err != nil {
		return err
	}
	l.transactions = append(l.transactions, trx)
	l.stableSort()
	return nil
}

// AddSplit appends the Split row, then retroactively rescales every prior
// Buy/Sell row of the ticker: price is divided by the factor and quantity
// multiplied by it, so no value is created or destroyed.
func (l *TransactionLedger) AddSplit(trx Transaction) error {
	if err := trx.Validate(); err != nil {
		return err
	}
	if trx.Type != Split {
		return fmt.Errorf("expected a split transaction, got %s", trx.Type)
	}
	factor := trx.Price
	for i, t := range l.transactions {
		if t.Ticker != trx.Ticker || t.Date.After(trx.Date) {
			continue
		}
		if t.Type == Buy || t.Type == Sell {
			l.transactions[i].Price = t.Price.Div(factor)
			l.transactions[i].Quantity = t.Quantity.Mul(factor)
		}
	}
	l.transactions = append(l.transactions, trx)
	l.stableSort()
	return l.repo.Overwrite(l.transactions)
}

// TotalQuantity returns the signed quantity summed over every row of the
// ticker, Dividend and Split rows excluded.
func (l *TransactionLedger) TotalQuantity(ticker string) decimal.Decimal {
	qty := decimal.Zero
	for _, t := range l.transactions {
		if t.Ticker != ticker {
			continue
		}
		if t.Type == Buy || t.Type == Sell {
			qty = qty.Add(t.Quantity)
		}
	}
	return qty
}

// Position returns the cumulative signed quantity held in ticker as of the
// given date, Dividend and Split rows excluded.
func (l *TransactionLedger) Position(ticker string, on date.Date) decimal.Decimal {
	qty := decimal.Zero
	for _, t := range l.transactions {
		if t.Ticker != ticker || t.Date.After(on) {
			continue
		}
		if t.Type == Buy || t.Type == Sell {
			qty = qty.Add(t.Quantity)
		}
	}
	return qty
}

// AllTickers returns the sorted set of tickers present in the ledger.
func (l *TransactionLedger) AllTickers() []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, t := range l.transactions {
		if !seen[t.Ticker] {
			seen[t.Ticker] = true
			tickers = append(tickers, t.Ticker)
		}
	}
	slices.Sort(tickers)
	return tickers
}

// Currency returns the currency of the first transaction seen for the ticker.
func (l *TransactionLedger) Currency(ticker string) string {
	for _, t := range l.transactions {
		if t.Ticker == ticker {
			return t.Currency
		}
	}
	return ""
}

// FirstTransaction returns the earliest row, restricted to ticker when it is
// not empty. ok is false on an empty selection.
func (l *TransactionLedger) FirstTransaction(ticker string) (trx Transaction, ok bool) {
	for _, t := range l.transactions {
		if ticker == "" || t.Ticker == ticker {
			return t, true
		}
	}
	return Transaction{}, false
}

// LastTransaction returns the latest row, restricted to ticker when it is
// not empty. ok is false on an empty selection.
func (l *TransactionLedger) LastTransaction(ticker string) (trx Transaction, ok bool) {
	for i := len(l.transactions) - 1; i >= 0; i-- {
		if t := l.transactions[i]; ticker == "" || t.Ticker == ticker {
			return t, true
		}
	}
	return Transaction{}, false
}

// TotalFees returns the sum of fees across every row.
func (l *TransactionLedger) TotalFees() decimal.Decimal {
	fees := decimal.Zero
	for _, t := range l.transactions {
		fees = fees.Add(t.Fees)
	}
	return fees
}

// Len returns the number of rows in the ledger.
func (l *TransactionLedger) Len() int { return len(l.transactions) }

// Transactions returns an iterator over the rows in chronological order.
func (l *TransactionLedger) Transactions() iter.Seq[Transaction] {
	return slices.Values(l.transactions)
}

// TickerTransactions returns the rows for one ticker in chronological order,
// as a copy safe to use from other goroutines.
func (l *TransactionLedger) TickerTransactions(ticker string) []Transaction {
	var rows []Transaction
	for _, t := range l.transactions {
		if t.Ticker == ticker {
			rows = append(rows, t)
		}
	}
	return rows
}

// Reset clears the ledger back to an empty, schema-valid store.
func (l *TransactionLedger) Reset() error {
	if err := l.repo.Reset(); err != nil {
		return err
	}
	l.transactions = nil
	return nil
}
