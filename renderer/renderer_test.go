package renderer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/date"
)

func TestAmount(t *testing.T) {
	assert.Equal(t, "$1,234.50", Amount(1234.5, "USD"))
	assert.Equal(t, "+$10.00", SignedAmount(10, "USD"))
	assert.Equal(t, "-$10.00", SignedAmount(-10, "USD"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.34%", Percent(0.1234))
	assert.Equal(t, "100.00%", Percent(1))
}

func TestTransactions(t *testing.T) {
	trxs := []portlib.Transaction{
		{
			Date:     date.New(2022, time.May, 12),
			Ticker:   "AAPL",
			Type:     portlib.Buy,
			Quantity: decimal.NewFromInt(10),
			Price:    decimal.NewFromInt(100),
			Currency: "USD",
		},
	}
	md := Transactions(trxs)
	assert.Contains(t, md, "| 2022-05-12 | Buy | AAPL | 10 | $100.00 |")

	line := Transaction(trxs[0])
	assert.Equal(t, "Bought 10 AAPL at $100.00", line)
}

func TestCashChanges(t *testing.T) {
	changes := []portlib.CashChange{
		{Date: date.New(2022, time.January, 1), Direction: portlib.Deposit, Amount: decimal.NewFromInt(1000)},
		{Date: date.New(2022, time.March, 1), Direction: portlib.Withdrawal, Amount: decimal.NewFromInt(-250)},
	}
	md := CashChanges(changes, "CAD")
	assert.Contains(t, md, "| 2022-01-01 | Deposit | $1,000.00 |")
	assert.Contains(t, md, "**Balance: $750.00**")
}

func TestPnL(t *testing.T) {
	on := date.New(2022, time.May, 17)
	frame := &portlib.PnLFrame{}
	frame.Unrealized.Append(on, 39.25)
	frame.Realized.Append(on, 0)
	frame.Dividend.Append(on, 0)
	frame.Total.Append(on, 39.25)

	md := PnL(map[string]*portlib.PnLFrame{"AAPL": frame}, "CAD", on, on)
	assert.Contains(t, md, "# Daily PnL on 2022-05-17")
	assert.Contains(t, md, "| AAPL | +$39.25 | $0.00 | $0.00 | +$39.25 |")
}
