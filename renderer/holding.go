package renderer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/date"
)

// Holding renders the open positions and cash of the portfolio on a date.
func Holding(ctx context.Context, p *portlib.Portfolio, on date.Date) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings for %s on %s\n\n", p.Account(), on)

	open := p.OpenPositions(on)
	weights := p.PositionWeights(on)

	tickers := make([]string, 0, len(open))
	for t := range open {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	total := 0.0
	if len(tickers) > 0 {
		fmt.Fprintln(&b, "| Ticker | Tag | Quantity | Market Value | Weight |")
		fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")
		for _, ticker := range tickers {
			pos := open[ticker]
			npv, _ := pos.NPV().ValueAsOf(on)
			total += npv
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				ticker,
				pos.Tag,
				Quantity(pos.QuantityAsOf(on)),
				Amount(npv, p.Currency()),
				Percent(weights[ticker]),
			)
		}
		fmt.Fprintln(&b)
	}

	cash, err := p.Cash(ctx, on)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "- Securities: %s\n", Amount(total, p.Currency()))
	fmt.Fprintf(&b, "- Cash: %s\n", Amount(cash, p.Currency()))
	fmt.Fprintf(&b, "- **Total: %s**\n", Amount(total+cash, p.Currency()))
	return b.String(), nil
}

// Strategies renders the market value share of each strategy tag.
func Strategies(p *portlib.Portfolio, on date.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Strategy weights for %s on %s\n\n", p.Account(), on)

	weights := p.StrategyWeights(on)
	tags := make([]string, 0, len(weights))
	for t := range weights {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	fmt.Fprintln(&b, "| Strategy | Weight |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, tag := range tags {
		fmt.Fprintf(&b, "| %s | %s |\n", tag, Percent(weights[tag]))
	}
	return b.String()
}
