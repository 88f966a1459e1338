package portlib

import (
	"errors"
	"iter"
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/webclinic017/portlib/date"
)

// CashLedger is the append-only record of deposits and withdrawals for one
// account. It performs no solvency check: that belongs to the valuation
// engine, which must check before calling Add.
type CashLedger struct {
	repo    Repository[CashChange]
	changes []CashChange
}

// NewCashLedger loads a cash ledger from its repository. A store with an
// unexpected shape is logged and treated as empty.
func NewCashLedger(repo Repository[CashChange]) (*CashLedger, error) {
	l := &CashLedger{repo: repo}
	if err := l.Load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Load reloads every row from the repository and re-sorts by date.
func (l *CashLedger) Load() error {
	rows, err := l.repo.Load()
	if err != nil {
		if errors.Is(err, ErrBadShape) {
			log.WithError(err).Warn("cash store has an unexpected shape, treating as empty")
			l.changes = nil
			return nil
		}
		return err
	}
	l.changes = rows
	sort.SliceStable(l.changes, func(i, j int) bool {
		return l.changes[i].Date.Before(l.changes[j].Date)
	})
	return nil
}

// Add validates and unconditionally appends the cash change.
func (l *CashLedger) Add(change CashChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	if err := l.repo.Append(change); err != nil {
		return err
	}
	l.changes = append(l.changes, change)
	sort.SliceStable(l.changes, func(i, j int) bool {
		return l.changes[i].Date.Before(l.changes[j].Date)
	})
	return nil
}

// BalanceAsOf returns the sum of signed amounts dated on or before the given
// date. Deposits count positive, withdrawals negative.
func (l *CashLedger) BalanceAsOf(on date.Date) decimal.Decimal {
	balance := decimal.Zero
	for _, c := range l.changes {
		if c.Date.After(on) {
			continue
		}
		balance = balance.Add(c.Amount)
	}
	return balance
}

// Changes returns an iterator over the rows in chronological order.
func (l *CashLedger) Changes() iter.Seq[CashChange] {
	return slices.Values(l.changes)
}

// Len returns the number of rows in the cash ledger.
func (l *CashLedger) Len() int { return len(l.changes) }

// Reset clears the cash ledger back to an empty, schema-valid store.
func (l *CashLedger) Reset() error {
	if err := l.repo.Reset(); err != nil {
		return err
	}
	l.changes = nil
	return nil
}
