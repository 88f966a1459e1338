package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/date"
	"github.com/webclinic017/portlib/renderer"
)

// recordTransaction runs a ledger row through the portfolio's checks and
// reports the outcome.
func recordTransaction(ctx context.Context, trx portlib.Transaction) subcommands.ExitStatus {
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	if trx.Currency == "" {
		trx.Currency = p.Currency()
	}
	if err := p.AddTransaction(ctx, trx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: transaction not added: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(renderer.Transaction(trx))
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct {
	date     string
	ticker   string
	quantity float64
	price    float64
	fees     float64
	currency string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `buy -d <date> -t <ticker> -q <quantity> -p <price> [-f <fees>] [-c <currency>]

  Purchases shares of a security. The total cost is debited from the cash
  account, so the account must hold enough funds on the transaction date.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.fees, "f", 0, "Transaction fees")
	f.StringVar(&c.currency, "c", "", "Transaction currency, account currency by default")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return recordTransaction(ctx, portlib.Transaction{
		Date:     day,
		Ticker:   c.ticker,
		Type:     portlib.Buy,
		Quantity: decimal.NewFromFloat(c.quantity),
		Price:    decimal.NewFromFloat(c.price),
		Fees:     decimal.NewFromFloat(c.fees),
		Currency: c.currency,
	})
}

// --- Sell Command ---

type sellCmd struct {
	date     string
	ticker   string
	quantity float64
	price    float64
	fees     float64
	currency string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares to trim or close a position" }
func (*sellCmd) Usage() string {
	return `sell -d <date> -t <ticker> -q <quantity> -p <price> [-f <fees>] [-c <currency>]

  Sells shares of a security. Selling more shares than held on the date is
  rejected.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Transaction date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares to sell")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.fees, "f", 0, "Transaction fees")
	f.StringVar(&c.currency, "c", "", "Transaction currency, account currency by default")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	// the ledger stores sells with a negative quantity
	return recordTransaction(ctx, portlib.Transaction{
		Date:     day,
		Ticker:   c.ticker,
		Type:     portlib.Sell,
		Quantity: decimal.NewFromFloat(-c.quantity),
		Price:    decimal.NewFromFloat(c.price),
		Fees:     decimal.NewFromFloat(c.fees),
		Currency: c.currency,
	})
}

// --- Dividend Command ---

type dividendCmd struct {
	date     string
	ticker   string
	amount   float64
	currency string
}

func (*dividendCmd) Name() string     { return "dividend" }
func (*dividendCmd) Synopsis() string { return "record a dividend received for a position" }
func (*dividendCmd) Usage() string {
	return `dividend -d <date> -t <ticker> -a <amount> [-c <currency>]

  Records a dividend. The amount is credited to the cash account, converted
  at the rate of the valuation date.
`
}

func (c *dividendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Ex-dividend date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.Float64Var(&c.amount, "a", 0, "Dividend amount received")
	f.StringVar(&c.currency, "c", "", "Dividend currency, account currency by default")
}

func (c *dividendCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.amount <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return recordTransaction(ctx, portlib.Transaction{
		Date:     day,
		Ticker:   c.ticker,
		Type:     portlib.Dividend,
		Price:    decimal.NewFromFloat(c.amount),
		Currency: c.currency,
	})
}

// --- Split Command ---

type splitCmd struct {
	date   string
	ticker string
	factor float64
}

func (*splitCmd) Name() string     { return "split" }
func (*splitCmd) Synopsis() string { return "record a stock split for a position" }
func (*splitCmd) Usage() string {
	return `split -d <date> -t <ticker> -f <factor>

  Records a stock split. Earlier buys and sells of the ticker are rescaled
  so quantity and cost history stay continuous.
`
}

func (c *splitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Split effective date (YYYY-MM-DD)")
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.Float64Var(&c.factor, "f", 0, "Split factor, e.g. 4 for a 4-for-1 split")
}

func (c *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.factor <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return recordTransaction(ctx, portlib.Transaction{
		Date:   day,
		Ticker: c.ticker,
		Type:   portlib.Split,
		Price:  decimal.NewFromFloat(c.factor),
	})
}
