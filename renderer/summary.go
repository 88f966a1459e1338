package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/date"
)

// Summary renders a one-page overview of the portfolio on a date.
func Summary(ctx context.Context, p *portlib.Portfolio, on date.Date) (string, error) {
	mv, _ := p.MarketValue().ValueAsOf(on)
	cash, err := p.Cash(ctx, on)
	if err != nil {
		return "", err
	}
	dividends, err := p.Dividends(ctx, date.Date{}, on)
	if err != nil {
		return "", err
	}
	fees, _ := p.TotalFees().Float64()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s summary on %s\n\n", p.Account(), on)
	fmt.Fprintf(&b, "- Currency: %s\n", p.Currency())
	if !p.StartDate().IsZero() {
		fmt.Fprintf(&b, "- First transaction: %s\n", p.StartDate())
	}
	fmt.Fprintf(&b, "- Open positions: %d\n", len(p.OpenPositions(on)))
	fmt.Fprintf(&b, "- Market value: %s\n", Amount(mv, p.Currency()))
	fmt.Fprintf(&b, "- Cash: %s\n", Amount(cash, p.Currency()))
	fmt.Fprintf(&b, "- Dividends received: %s\n", Amount(dividends, p.Currency()))
	fmt.Fprintf(&b, "- Fees paid: %s\n", Amount(fees, p.Currency()))
	fmt.Fprintf(&b, "- **Total value: %s**\n", Amount(mv+cash, p.Currency()))
	return b.String(), nil
}
