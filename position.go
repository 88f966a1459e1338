package portlib

import (
	"fmt"
	"slices"

	"github.com/webclinic017/portlib/date"
)

// TimeSeries is anything that can produce a daily return series over a date
// window. Both Position and Portfolio implement it.
type TimeSeries interface {
	Returns(start, end date.Date) *date.History[float64]
}

// Position holds the per-ticker daily price series (pre-converted to the
// portfolio currency when the ticker trades in another one) and the derived
// held-quantity series assigned by the valuation engine after each ledger
// reload.
type Position struct {
	Ticker   string
	Currency string
	Tag      string

	prices     *date.History[float64]
	quantities *date.History[float64]
}

// NewPosition returns a position over the given price series. Quantities
// default to a constant-1 series on the price index until the engine assigns
// the cumulative series, so price-only analytics stay usable.
func NewPosition(ticker, currency, tag string, prices *date.History[float64]) *Position {
	return &Position{Ticker: ticker, Currency: currency, Tag: tag, prices: prices}
}

// Prices returns the position's price series.
func (p *Position) Prices() *date.History[float64] { return p.prices }

// SetPrices replaces the position's price series.
func (p *Position) SetPrices(h *date.History[float64]) { p.prices = h }

// SetQuantities assigns the cumulative held-quantity series.
func (p *Position) SetQuantities(h *date.History[float64]) { p.quantities = h }

// Quantities returns the assigned quantity series, or the constant-1 default.
func (p *Position) Quantities() *date.History[float64] {
	if p.quantities != nil && p.quantities.Len() > 0 {
		return p.quantities
	}
	ones := &date.History[float64]{}
	for on := range p.prices.Values() {
		ones.Append(on, 1)
	}
	return ones
}

// QuantityAsOf returns the held quantity on the given date, forward-filled.
func (p *Position) QuantityAsOf(on date.Date) float64 {
	q, _ := p.Quantities().ValueAsOf(on)
	return q
}

// NPV returns the position's daily net present value, prices × quantities on
// the dates both series share.
func (p *Position) NPV() *date.History[float64] {
	out := &date.History[float64]{}
	qty := p.Quantities()
	for on, price := range p.prices.Values() {
		if q, ok := qty.Get(on); ok {
			out.Append(on, price*q)
		}
	}
	return out
}

// Returns implements TimeSeries: the daily percent change of the price
// series over the window, first day zero.
func (p *Position) Returns(start, end date.Date) *date.History[float64] {
	out := &date.History[float64]{}
	prev := 0.0
	first := true
	for on, price := range p.prices.Values() {
		if on.Before(start) || on.After(end) {
			continue
		}
		if first || prev == 0 {
			out.Append(on, 0)
		} else {
			out.Append(on, price/prev-1)
		}
		prev, first = price, false
	}
	return out
}

// PnLFrame is the daily PnL decomposition of one position, in portfolio
// currency. All four series share the same date index.
type PnLFrame struct {
	Unrealized date.History[float64]
	Realized   date.History[float64]
	Dividend   date.History[float64]
	Total      date.History[float64]
}

// pnlLookback is the number of business days of price history pulled in
// before the window so the first mark-to-market difference is seeded.
const pnlLookback = 4

// DailyPnL computes the position's daily PnL decomposition over
// [start, end] in portfolio currency.
//
// The base case marks the already-held position to market day over day. Each
// transaction in the window then adjusts its own day: a Buy re-anchors
// unrealized on a cost blended from the prior close and the trade, a Sell
// crystallizes realized PnL against the prior close, a Dividend books the
// received amount, and fees of any type reduce the day's total.
//
// Missing price data on a transaction day logs an error and stops processing
// further transactions; the frame built so far is returned.
func (p *Position) DailyPnL(start, end date.Date, transactions []Transaction, fx map[string]date.History[float64], baseCurrency string) (*PnLFrame, error) {
	if end.IsZero() {
		end = date.LastBusinessDay(date.Today())
	}
	if start.IsZero() {
		start = end
	}

	searchDate := date.AddBusinessDays(start, -pnlLookback)
	quantities := p.Quantities()

	// Price dates in [searchDate, end] that the quantity series also knows.
	var days []date.Date
	for on := range p.prices.Values() {
		if on.Before(searchDate) || on.After(end) {
			continue
		}
		if _, ok := quantities.ValueAsOf(on); ok {
			days = append(days, on)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%s: no price data in [%s, %s]", p.Ticker, searchDate, end)
	}

	frame := &PnLFrame{}
	for i := 1; i < len(days); i++ {
		on := days[i]
		if on.Before(start) {
			continue
		}
		prev, _ := p.prices.Get(days[i-1])
		cur, _ := p.prices.Get(on)
		qty, _ := quantities.ValueAsOf(on)
		frame.Unrealized.Append(on, (cur-prev)*qty)
		frame.Realized.Append(on, 0)
		frame.Dividend.Append(on, 0)
		frame.Total.Append(on, 0)
	}

	p.applyTransactions(frame, transactions, fx, baseCurrency, end)

	// Fold the fee adjustments accumulated in Total into the final sum.
	for on, u := range frame.Unrealized.Values() {
		r, _ := frame.Realized.Get(on)
		d, _ := frame.Dividend.Get(on)
		fees, _ := frame.Total.Get(on)
		frame.Total.Append(on, u+r+d+fees)
	}
	return frame, nil
}

// applyTransactions overlays the per-transaction branching of DailyPnL onto
// the base mark-to-market frame.
func (p *Position) applyTransactions(frame *PnLFrame, transactions []Transaction, fx map[string]date.History[float64], baseCurrency string, end date.Date) {
	for _, trx := range transactions {
		if trx.Date.After(end) || trx.Type == Split {
			continue
		}
		if _, ok := frame.Unrealized.Get(trx.Date); !ok {
			// Outside the computed window, nothing to overlay.
			continue
		}

		startQty := p.shiftedQuantity(trx.Date)
		trxFx, ok := rateAsOf(fx, Pair(trx.Currency, baseCurrency), trx.Date)
		if !ok {
			log.Errorf("%s: no %s rate on %s, pnl not computed", p.Ticker, Pair(trx.Currency, baseCurrency), trx.Date)
			break
		}
		refPrice, ok := p.shiftedPrice(trx.Date)
		if !ok {
			log.Errorf("no data for %s, pnl not computed", p.Ticker)
			break
		}

		price, _ := trx.Price.Float64()
		qty, _ := trx.Quantity.Float64()
		fees, _ := trx.Fees.Float64()

		switch trx.Type {
		case Buy:
			closing, ok := p.prices.Get(trx.Date)
			if !ok {
				log.Errorf("no data for %s, pnl not computed", p.Ticker)
				return
			}
			newQty := qty + startQty
			blended := (qty*(price*trxFx) + startQty*refPrice) / newQty
			frame.Unrealized.Append(trx.Date, (closing-blended)*newQty)
		case Sell:
			realized := (refPrice - price*trxFx) * qty
			frame.Realized.AppendAdd(trx.Date, realized)
		case Dividend:
			frame.Dividend.Append(trx.Date, price*trxFx)
		}
		frame.Total.AppendAdd(trx.Date, -fees)
	}
}

// shiftedQuantity returns the held quantity at the trading day before on,
// zero (with a calendar-mismatch warning) when on is not a known trading day.
func (p *Position) shiftedQuantity(on date.Date) float64 {
	if p.quantities == nil {
		return 0
	}
	days := p.quantities.Days()
	i := slices.Index(days, on)
	if i < 0 {
		log.Errorf("%s: (%s), market not open. open qty set to 0", p.Ticker, on)
		return 0
	}
	if i == 0 {
		return 0
	}
	q, _ := p.quantities.Get(days[i-1])
	return q
}

// shiftedPrice returns the closing price at the trading day before on.
func (p *Position) shiftedPrice(on date.Date) (float64, bool) {
	days := p.prices.Days()
	i := slices.Index(days, on)
	if i <= 0 {
		return 0, false
	}
	return p.prices.Get(days[i-1])
}

// rateAsOf looks a pair up in a rates snapshot, forward-filled.
func rateAsOf(fx map[string]date.History[float64], pair string, on date.Date) (float64, bool) {
	if selfPair(pair) {
		return 1.0, true
	}
	h, ok := fx[pair]
	if !ok {
		return 0, false
	}
	return h.ValueAsOf(on)
}
