// Package cmd implements the CLI application to manage investment accounts.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/alphavantage"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var (
	configFile = flag.String("config", defaultConfigPath(), "Path to the TOML config file")
	account    = flag.String("account", "main", "Account to operate on")
)

// Commands lists every subcommand; a main package registers them all.
var Commands = []subcommands.Command{
	&buyCmd{},
	&sellCmd{},
	&dividendCmd{},
	&splitCmd{},
	&depositCmd{},
	&withdrawCmd{},
	&cashCmd{},
	&txCmd{},
	&holdingCmd{},
	&pnlCmd{},
	&summaryCmd{},
	&updateCmd{},
	&resetCmd{},
	&tagCmd{},
	&topicCmd{},
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".portlib", "config.toml")
}

// loadConfig reads the config file with environment overrides applied.
func loadConfig() (*portlib.Config, error) {
	return portlib.LoadConfig(*configFile)
}

// openPortfolio assembles the valuation engine for the selected account.
func openPortfolio(ctx context.Context) (*portlib.Portfolio, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	source := alphavantage.New(cfg.AlphaVantage.APIKey, cfg.DataDir,
		alphavantage.WithRequestsPerMinute(cfg.AlphaVantage.RequestsPerMinute))
	reader := portlib.NewDataReader(cfg.DataDir, source)

	accountDir := cfg.AccountDir(*account)
	ledger, err := portlib.NewTransactionLedger(portlib.NewCSVTransactionRepository(accountDir))
	if err != nil {
		return nil, fmt.Errorf("could not open transaction ledger: %w", err)
	}
	cashLedger, err := portlib.NewCashLedger(portlib.NewCSVCashRepository(accountDir))
	if err != nil {
		return nil, fmt.Errorf("could not open cash ledger: %w", err)
	}
	fx := portlib.NewFxRateCache(reader)
	tags := portlib.NewPositionTags(accountDir)
	return portlib.NewPortfolio(ctx, *account, cfg.BaseCurrency, reader, ledger, cashLedger, fx, tags)
}

// printMarkdown renders markdown to the terminal, falling back to the raw
// text when rendering fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
