package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/webclinic017/portlib/date"
	"github.com/webclinic017/portlib/renderer"
)

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	date   string
	update bool
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display detailed holdings for a specific date" }
func (*holdingCmd) Usage() string {
	return `holding [-d <date>] [-u]

  Displays the account's open positions and cash on a given date.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date for the holdings report (YYYY-MM-DD)")
	f.BoolVar(&c.update, "u", false, "update market data before calculating the report")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := date.Parse(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.update {
		if err := p.UpdateData(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating market data: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	md, err := renderer.Holding(ctx, p, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building holding report: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
