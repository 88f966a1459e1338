package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// --- Update Command ---

type updateCmd struct{}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "refresh market data for every position" }
func (*updateCmd) Usage() string {
	return `update

  Refreshes prices for every position and every tracked FX pair, then
  recomputes the account's derived state.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := p.UpdateData(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating market data: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s updated\n", p.Account())
	return subcommands.ExitSuccess
}

// --- Reset Command ---

type resetCmd struct {
	force bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "erase the account's ledgers and tags" }
func (*resetCmd) Usage() string {
	return `reset [-force]

  Erases the transaction ledger, the cash ledger and the tags of the
  account. Asks for confirmation unless -force is given.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "do not ask for confirmation")
}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.force {
		fmt.Printf("Erase all data of account %q? [y/N] ", *account)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(answer)) != "y" {
			fmt.Println("aborted")
			return subcommands.ExitSuccess
		}
	}
	p, err := openPortfolio(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening account: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := p.Reset(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error resetting account: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s reset\n", p.Account())
	return subcommands.ExitSuccess
}
