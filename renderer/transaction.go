package renderer

import (
	"fmt"
	"strings"

	"github.com/webclinic017/portlib"
)

// Transaction renders a single ledger row to a sentence.
func Transaction(trx portlib.Transaction) string {
	qty, _ := trx.Quantity.Float64()
	price, _ := trx.Price.Float64()
	switch trx.Type {
	case portlib.Buy:
		return fmt.Sprintf("Bought %s %s at %s", Quantity(qty), trx.Ticker, Amount(price, trx.Currency))
	case portlib.Sell:
		return fmt.Sprintf("Sold %s %s at %s", Quantity(-qty), trx.Ticker, Amount(price, trx.Currency))
	case portlib.Dividend:
		return fmt.Sprintf("Dividend of %s for %s", Amount(price, trx.Currency), trx.Ticker)
	case portlib.Split:
		return fmt.Sprintf("Split %s %s:1", trx.Ticker, Quantity(price))
	default:
		return string(trx.Type)
	}
}

// Transactions renders ledger rows as a markdown table.
func Transactions(transactions []portlib.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions\n\n")
	fmt.Fprintln(&b, "| Date | Type | Ticker | Quantity | Price | Fees | Currency |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|:---|")
	for _, trx := range transactions {
		qty, _ := trx.Quantity.Float64()
		price, _ := trx.Price.Float64()
		fees, _ := trx.Fees.Float64()
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			trx.Date,
			trx.Type,
			trx.Ticker,
			Quantity(qty),
			Amount(price, trx.Currency),
			Amount(fees, trx.Currency),
			trx.Currency,
		)
	}
	return b.String()
}

// CashChanges renders cash ledger rows as a markdown table.
func CashChanges(changes []portlib.CashChange, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cash changes\n\n")
	fmt.Fprintln(&b, "| Date | Direction | Amount |")
	fmt.Fprintln(&b, "|:---|:---|---:|")
	balance := 0.0
	for _, c := range changes {
		amount, _ := c.Amount.Float64()
		balance += amount
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Date, c.Direction, Amount(amount, currency))
	}
	fmt.Fprintf(&b, "\n**Balance: %s**\n", Amount(balance, currency))
	return b.String()
}
