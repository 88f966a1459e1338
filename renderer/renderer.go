// Package renderer builds the markdown reports printed by the CLI.
package renderer

import (
	"fmt"
	"strconv"

	money "github.com/Rhymond/go-money"

	"github.com/webclinic017/portlib/date"
)

// Amount formats a value in the given currency for display.
func Amount(v float64, currency string) string {
	return money.NewFromFloat(v, currency).Display()
}

// SignedAmount formats a value keeping an explicit sign for gains.
func SignedAmount(v float64, currency string) string {
	if v > 0 {
		return "+" + Amount(v, currency)
	}
	return Amount(v, currency)
}

// Percent formats a ratio as a percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", 100*v)
}

// Quantity formats a share count without trailing zeros.
func Quantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// sum folds a daily series over [start, end]. Zero bounds mean no bound.
func sum(h *date.History[float64], start, end date.Date) float64 {
	total := 0.0
	for on, v := range h.Values() {
		if !start.IsZero() && on.Before(start) {
			continue
		}
		if !end.IsZero() && on.After(end) {
			continue
		}
		total += v
	}
	return total
}
