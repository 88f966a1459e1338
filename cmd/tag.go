package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// tagCmd holds the flags for the 'tag' subcommand.
type tagCmd struct {
	ticker string
	tag    string
}

func (*tagCmd) Name() string     { return "tag" }
func (*tagCmd) Synopsis() string { return "assign a strategy tag to a position" }
func (*tagCmd) Usage() string {
	return `tag -t <ticker> -g <tag>

  Assigns a strategy tag to a position. Tags group positions in the summary
  and filter the pnl and market value reports.
`
}

func (c *tagCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Security ticker")
	f.StringVar(&c.tag, "g", "", "Strategy tag to assign")
}

func (c *tagCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || c.tag == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := p.SetTag(ctx, c.ticker, c.tag); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting tag: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s tagged %q\n", c.ticker, c.tag)
	return subcommands.ExitSuccess
}
