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

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	date       string
	strategies bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a one-page overview of the account" }
func (*summaryCmd) Usage() string {
	return `summary [-d <date>] [-strategies]

  Displays market value, cash, dividends and fees on a given date, with an
  optional strategy weight breakdown.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", date.Today().String(), "Date for the summary (YYYY-MM-DD)")
	f.BoolVar(&c.strategies, "strategies", false, "include strategy weights")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	md, err := renderer.Summary(ctx, p, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building summary: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.strategies {
		md += "\n" + renderer.Strategies(p, on)
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
