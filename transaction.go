package portlib

import (
	"errors"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/webclinic017/portlib/date"
)

// TrxType is a typed string identifying the kind of a ledger row.
type TrxType string

// Transaction types recorded in the ledger.
const (
	Buy      TrxType = "Buy"
	Sell     TrxType = "Sell"
	Dividend TrxType = "Dividend"
	Split    TrxType = "Split"
)

// ParseTrxType parses the string form of a transaction type.
func ParseTrxType(s string) (TrxType, error) {
	switch TrxType(s) {
	case Buy, Sell, Dividend, Split:
		return TrxType(s), nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is one immutable row of the transaction ledger.
//
// For a Split, Quantity is zero and Price carries the split factor.
// For a Dividend, Quantity is zero and Price carries the amount received.
type Transaction struct {
	Date     date.Date
	Ticker   string
	Type     TrxType
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fees     decimal.Decimal
	Currency string
}

// Notional returns Quantity × Price in the transaction's currency.
func (t Transaction) Notional() decimal.Decimal { return t.Quantity.Mul(t.Price) }

// Validate checks every field of the transaction and returns an error naming
// all failed checks.
func (t Transaction) Validate() error {
	var errs []error
	if t.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	}
	if t.Ticker == "" {
		errs = append(errs, errors.New("ticker is required"))
	}
	switch t.Type {
	case Buy:
		if !t.Quantity.IsPositive() {
			errs = append(errs, fmt.Errorf("buy quantity must be positive, got %s", t.Quantity))
		}
	case Sell:
		if !t.Quantity.IsNegative() {
			errs = append(errs, fmt.Errorf("sell quantity must be negative, got %s", t.Quantity))
		}
	case Dividend:
		if !t.Quantity.IsZero() {
			errs = append(errs, fmt.Errorf("dividend quantity must be zero, got %s", t.Quantity))
		}
	case Split:
		if !t.Quantity.IsZero() {
			errs = append(errs, fmt.Errorf("split quantity must be zero, got %s", t.Quantity))
		}
		if !t.Price.IsPositive() {
			errs = append(errs, fmt.Errorf("split factor must be positive, got %s", t.Price))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transaction type %q", t.Type))
	}
	if t.Price.IsNegative() {
		errs = append(errs, fmt.Errorf("price must not be negative, got %s", t.Price))
	}
	if t.Fees.IsNegative() {
		errs = append(errs, fmt.Errorf("fees must not be negative, got %s", t.Fees))
	}
	if money.GetCurrency(t.Currency) == nil {
		errs = append(errs, fmt.Errorf("unknown currency code %q", t.Currency))
	}
	return errors.Join(errs...)
}

// Direction is the kind of a cash ledger row.
type Direction string

// Cash change directions.
const (
	Deposit    Direction = "Deposit"
	Withdrawal Direction = "Withdrawal"
)

// ParseDirection parses the string form of a cash change direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Deposit, Withdrawal:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown cash change direction %q", s)
	}
}

// CashChange is one immutable row of the cash ledger. Amount is signed and
// its sign matches the direction by convention.
type CashChange struct {
	Date      date.Date
	Direction Direction
	Amount    decimal.Decimal
}

// Validate checks the cash change fields, rejecting a direction/sign mismatch.
func (c CashChange) Validate() error {
	var errs []error
	if c.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	}
	switch c.Direction {
	case Deposit:
		if !c.Amount.IsPositive() {
			errs = append(errs, fmt.Errorf("deposit amount must be positive, got %s", c.Amount))
		}
	case Withdrawal:
		if !c.Amount.IsNegative() {
			errs = append(errs, fmt.Errorf("withdrawal amount must be negative, got %s", c.Amount))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cash change direction %q", c.Direction))
	}
	return errors.Join(errs...)
}
