package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/webclinic017/portlib/date"
	"github.com/webclinic017/portlib/renderer"
)

// pnlCmd holds the flags for the 'pnl' subcommand.
type pnlCmd struct {
	start   string
	end     string
	pct     bool
	cash    bool
	exclude string
	tags    string
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "display the daily PnL decomposition" }
func (*pnlCmd) Usage() string {
	return `pnl [-s <start>] [-e <end>] [-pct [-cash]] [-x <tickers>] [-g <tags>]

  Displays the per-ticker PnL decomposition (unrealized, realized, dividend,
  total) over a date window. Both dates default to the last data point.
`
}

func (c *pnlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Window start date (YYYY-MM-DD)")
	f.StringVar(&c.end, "e", "", "Window end date (YYYY-MM-DD)")
	f.BoolVar(&c.pct, "pct", false, "Report as a share of market value")
	f.BoolVar(&c.cash, "cash", false, "Count cash in the -pct denominator")
	f.StringVar(&c.exclude, "x", "", "Comma-separated tickers to exclude")
	f.StringVar(&c.tags, "g", "", "Comma-separated strategy tags to keep")
}

func (c *pnlCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var start, end date.Date
	var err error
	if c.start != "" {
		if start, err = date.Parse(c.start); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.end != "" {
		if end, err = date.Parse(c.end); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}

	exclude := splitList(c.exclude)
	tags := splitList(c.tags)

	if c.pct {
		pct, err := p.PctDailyTotalPnL(ctx, start, end, c.cash, exclude, tags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing pnl: %v\n", err)
			return subcommands.ExitFailure
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Daily PnL of %s\n\n", p.Account())
		fmt.Fprintln(&b, "| Date | PnL |")
		fmt.Fprintln(&b, "|:---|---:|")
		for on, v := range pct.Values() {
			fmt.Fprintf(&b, "| %s | %s |\n", on, renderer.Percent(v))
		}
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	}

	frames := p.DailyPnL(start, end, exclude, tags)
	if end.IsZero() {
		for _, frame := range frames {
			if on, _ := frame.Total.Latest(); on.After(end) {
				end = on
			}
		}
	}
	if start.IsZero() {
		start = end
	}
	printMarkdown(renderer.PnL(frames, p.Currency(), start, end))
	return subcommands.ExitSuccess
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
