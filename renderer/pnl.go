package renderer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/date"
)

// PnL renders the per-ticker PnL decomposition accumulated over [start, end].
func PnL(frames map[string]*portlib.PnLFrame, currency string, start, end date.Date) string {
	var b strings.Builder
	if start == end {
		fmt.Fprintf(&b, "# Daily PnL on %s\n\n", end)
	} else {
		fmt.Fprintf(&b, "# PnL from %s to %s\n\n", start, end)
	}

	tickers := make([]string, 0, len(frames))
	for t := range frames {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	fmt.Fprintln(&b, "| Ticker | Unrealized | Realized | Dividend | Total |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|")
	var unrealized, realized, dividend, total float64
	for _, ticker := range tickers {
		frame := frames[ticker]
		u := sum(&frame.Unrealized, start, end)
		r := sum(&frame.Realized, start, end)
		d := sum(&frame.Dividend, start, end)
		t := sum(&frame.Total, start, end)
		unrealized, realized, dividend, total = unrealized+u, realized+r, dividend+d, total+t
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			ticker,
			SignedAmount(u, currency),
			SignedAmount(r, currency),
			SignedAmount(d, currency),
			SignedAmount(t, currency),
		)
	}
	fmt.Fprintf(&b, "| **Total** | %s | %s | %s | **%s** |\n",
		SignedAmount(unrealized, currency),
		SignedAmount(realized, currency),
		SignedAmount(dividend, currency),
		SignedAmount(total, currency),
	)
	return b.String()
}
