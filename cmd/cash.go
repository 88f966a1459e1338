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

// recordCashChange appends a cash ledger row and reports the new balance.
func recordCashChange(ctx context.Context, change portlib.CashChange) subcommands.ExitStatus {
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := p.AddCashChange(ctx, change); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cash change not added: %v\n", err)
		return subcommands.ExitFailure
	}
	cash, err := p.Cash(ctx, date.Date{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing cash balance: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("New cash balance: %s\n", renderer.Amount(cash, p.Currency()))
	return subcommands.ExitSuccess
}

// --- Deposit Command ---

type depositCmd struct {
	date   string
	amount float64
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "deposit cash into the account" }
func (*depositCmd) Usage() string {
	return `deposit -d <date> -a <amount>

  Deposits cash, in the account currency.
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Deposit date (YYYY-MM-DD)")
	f.Float64Var(&c.amount, "a", 0, "Amount to deposit")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return recordCashChange(ctx, portlib.CashChange{
		Date:      day,
		Direction: portlib.Deposit,
		Amount:    decimal.NewFromFloat(c.amount),
	})
}

// --- Withdraw Command ---

type withdrawCmd struct {
	date   string
	amount float64
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "withdraw cash from the account" }
func (*withdrawCmd) Usage() string {
	return `withdraw -d <date> -a <amount>

  Withdraws cash, in the account currency.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Withdrawal date (YYYY-MM-DD)")
	f.Float64Var(&c.amount, "a", 0, "Amount to withdraw")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	// the ledger stores withdrawals with a negative amount
	return recordCashChange(ctx, portlib.CashChange{
		Date:      day,
		Direction: portlib.Withdrawal,
		Amount:    decimal.NewFromFloat(-c.amount),
	})
}

// --- Cash Command ---

type cashCmd struct{}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "list cash changes and the current balance" }
func (*cashCmd) Usage() string {
	return `cash

  Lists the cash ledger and the current balance.
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {}

func (c *cashCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	var changes []portlib.CashChange
	for c := range p.CashLedger().Changes() {
		changes = append(changes, c)
	}
	printMarkdown(renderer.CashChanges(changes, p.Currency()))
	return subcommands.ExitSuccess
}
