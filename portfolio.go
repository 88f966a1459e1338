package portlib

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/webclinic017/portlib/date"
)

// InsufficientFundsError is returned when a transaction's value exceeds the
// cash available on its date. Shortfall carries the missing amount in
// portfolio currency.
type InsufficientFundsError struct {
	Account   string
	Shortfall float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: not enough funds, missing %.2f to complete", e.Account, e.Shortfall)
}

// Portfolio is the valuation engine of one account. It composes the
// transaction ledger, the cash ledger, the FX cache and the per-ticker
// positions to produce market value, cash balance, dividends and the daily
// PnL decomposition, and owns the solvency check performed before accepting
// new transactions.
//
// Writes are serialized behind a per-account mutex: the solvency check reads
// a snapshot of ledger and cash state, and the subsequent append must not
// race with another writer.
type Portfolio struct {
	mu sync.Mutex

	account  string
	currency string

	reader     *DataReader
	ledger     *TransactionLedger
	cashLedger *CashLedger
	fx         *FxRateCache
	tags       *PositionTags

	positions   map[string]*Position
	startDate   date.Date
	marketValue *date.History[float64]
	cashHistory *date.History[float64]
}

// NewPortfolio assembles the engine and loads all derived state.
func NewPortfolio(ctx context.Context, account, currency string, reader *DataReader, ledger *TransactionLedger, cashLedger *CashLedger, fx *FxRateCache, tags *PositionTags) (*Portfolio, error) {
	p := &Portfolio{
		account:    account,
		currency:   currency,
		reader:     reader,
		ledger:     ledger,
		cashLedger: cashLedger,
		fx:         fx,
		tags:       tags,
	}
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Account returns the account identifier.
func (p *Portfolio) Account() string { return p.account }

// Currency returns the portfolio base currency.
func (p *Portfolio) Currency() string { return p.currency }

// StartDate returns the earliest transaction date across all tickers.
func (p *Portfolio) StartDate() date.Date { return p.startDate }

// Ledger returns the underlying transaction ledger.
func (p *Portfolio) Ledger() *TransactionLedger { return p.ledger }

// CashLedger returns the underlying cash ledger.
func (p *Portfolio) CashLedger() *CashLedger { return p.cashLedger }

// Positions returns the per-ticker positions.
func (p *Portfolio) Positions() map[string]*Position { return p.positions }

// Load reloads both ledgers, recomputes the start date, rebuilds each
// position's price and quantity series from the ledger and the persisted
// market data, and recomputes the cached market value and cash history.
func (p *Portfolio) Load(ctx context.Context) error {
	if err := p.ledger.Load(); err != nil {
		return err
	}
	if err := p.cashLedger.Load(); err != nil {
		return err
	}
	tickers := p.ledger.AllTickers()
	if err := p.tags.Load(tickers); err != nil {
		return err
	}

	if first, ok := p.ledger.FirstTransaction(""); ok {
		p.startDate = first.Date
	} else {
		p.startDate = date.Date{}
	}
	lastDate := p.reader.LastDataPoint(p.currency)
	p.fx.SetCalendar(date.Range{From: p.startDate, To: lastDate})

	if err := p.loadPositions(ctx, tickers); err != nil {
		return err
	}
	p.loadPositionQuantities(lastDate)
	mv, err := p.ComputeMarketValue(ctx, nil, nil)
	if err != nil {
		return err
	}
	p.marketValue = mv
	if err := p.loadCashHistory(ctx); err != nil {
		return err
	}
	log.Debugf("%s data loaded", p.account)
	return nil
}

// loadPositions rebuilds every position, converting prices into the
// portfolio currency when the ticker trades in another one.
func (p *Portfolio) loadPositions(ctx context.Context, tickers []string) error {
	p.positions = make(map[string]*Position, len(tickers))
	for _, ticker := range tickers {
		currency := p.ledger.Currency(ticker)
		prices, err := p.reader.Prices(ctx, ticker)
		if err != nil {
			return fmt.Errorf("could not load prices for %s: %w", ticker, err)
		}
		if currency != p.currency {
			rates, err := p.fx.Get(ctx, Pair(currency, p.currency))
			if err != nil {
				return fmt.Errorf("could not load fx for %s: %w", ticker, err)
			}
			converted := &date.History[float64]{}
			for on, price := range prices.Values() {
				if rate, ok := rates.Get(on); ok {
					converted.Append(on, price*rate)
				}
			}
			prices = converted
		}
		p.positions[ticker] = NewPosition(ticker, currency, p.tags.Get(ticker), prices)
	}
	return nil
}

// loadPositionQuantities assigns every position its cumulative quantity
// series over the trading calendar, Dividend and Split rows excluded.
func (p *Portfolio) loadPositionQuantities(lastDate date.Date) {
	if len(p.positions) == 0 {
		log.Debugf("%s no positions in portfolio", p.account)
		return
	}
	days := date.MarketDays(p.startDate, lastDate)
	for ticker, pos := range p.positions {
		deltas := make(map[date.Date]float64)
		for _, trx := range p.ledger.TickerTransactions(ticker) {
			if trx.Type == Dividend || trx.Type == Split {
				continue
			}
			q, _ := trx.Quantity.Float64()
			deltas[trx.Date] += q
		}
		// Union of the trading calendar and the transaction dates, so a
		// trade on a non-trading day still lands in the series.
		index := make(map[date.Date]bool, len(days)+len(deltas))
		for _, on := range days {
			index[on] = true
		}
		for on := range deltas {
			index[on] = true
		}
		sorted := make([]date.Date, 0, len(index))
		for on := range index {
			sorted = append(sorted, on)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

		qty := &date.History[float64]{}
		cum := 0.0
		for _, on := range sorted {
			cum += deltas[on]
			qty.Append(on, cum)
		}
		pos.SetQuantities(qty)
	}
	log.Debugf("%s quantities computed", p.account)
}

// ComputeMarketValue returns the portfolio's daily market value over the
// trading calendar [start date, last data point]. Positions named in exclude
// are skipped; a non-empty tags list keeps only matching positions. An
// empty selection yields an empty series.
func (p *Portfolio) ComputeMarketValue(ctx context.Context, exclude, tags []string) (*date.History[float64], error) {
	included := p.selectPositions(exclude, tags)
	out := &date.History[float64]{}
	if len(included) == 0 {
		log.Debugf("%s no positions in portfolio", p.account)
		return out, nil
	}

	lastDate := p.reader.LastDataPoint(p.currency)
	days := date.MarketDays(p.startDate, lastDate)
	totals := make([]float64, len(days))

	for _, pos := range included {
		qty := pos.Quantities()
		vals := make([]float64, len(days))
		sum := 0.0
		for i, on := range days {
			// Yesterday's held quantity marks today's price; the first
			// day backfills its own quantity.
			var q float64
			if i == 0 {
				q, _ = qty.ValueAsOf(on)
			} else {
				q, _ = qty.ValueAsOf(days[i-1])
			}
			if price, ok := pos.Prices().ValueAsOf(on); ok {
				vals[i] = q * price
			} else if i > 0 {
				vals[i] = vals[i-1]
			}
			sum += vals[i]
		}
		if sum == 0 {
			log.Debugf("no market value computed for %s", pos.Ticker)
			continue
		}
		for i := range days {
			totals[i] += vals[i]
		}
	}
	for i, on := range days {
		out.Append(on, totals[i])
	}
	return out, nil
}

// MarketValue returns the cached daily market value series.
func (p *Portfolio) MarketValue() *date.History[float64] { return p.marketValue }

// CashHistory returns the cash balance series over the market value index.
func (p *Portfolio) CashHistory() *date.History[float64] { return p.cashHistory }

func (p *Portfolio) loadCashHistory(ctx context.Context) error {
	h := &date.History[float64]{}
	for on := range p.marketValue.Values() {
		c, err := p.Cash(ctx, on)
		if err != nil {
			return err
		}
		h.Append(on, c)
	}
	p.cashHistory = h
	return nil
}

// Cash returns the cash available on the given date in portfolio currency:
// deposits and withdrawals, minus the converted notional of every
// transaction to date, minus fees, plus accumulated dividends. Rounded to 2
// decimals. A zero date means the last data point.
func (p *Portfolio) Cash(ctx context.Context, on date.Date) (float64, error) {
	if on.IsZero() {
		on = p.reader.LastDataPoint(p.currency)
	}
	changes, _ := p.cashLedger.BalanceAsOf(on).Float64()

	notionals := 0.0
	fees := 0.0
	for trx := range p.ledger.Transactions() {
		if trx.Date.After(on) {
			continue
		}
		value, _ := trx.Notional().Float64()
		rate, err := p.fx.RateAsOf(ctx, Pair(trx.Currency, p.currency), trx.Date)
		if err != nil {
			return 0, err
		}
		notionals += value * rate
		f, _ := trx.Fees.Float64()
		fees += f
	}

	dividends, err := p.Dividends(ctx, date.Date{}, on)
	if err != nil {
		return 0, err
	}
	cash := -notionals + changes + dividends - fees
	return math.Round(cash*100) / 100, nil
}

// Dividends returns the dividends accumulated over the window, converted to
// portfolio currency at the window's end rate, rounded to 2 decimals. Zero
// dates default to [start date, last data point]. A portfolio without
// positions yields 0.
func (p *Portfolio) Dividends(ctx context.Context, start, end date.Date) (float64, error) {
	if len(p.positions) == 0 {
		return 0, nil
	}
	if end.IsZero() {
		end = p.reader.LastDataPoint(p.currency)
	}
	if start.IsZero() {
		start = p.startDate
	}
	total := 0.0
	for trx := range p.ledger.Transactions() {
		if trx.Type != Dividend || trx.Date.Before(start) || trx.Date.After(end) {
			continue
		}
		amount, _ := trx.Price.Float64()
		rate, err := p.fx.RateAsOf(ctx, Pair(trx.Currency, p.currency), end)
		if err != nil {
			return 0, err
		}
		total += amount * rate
	}
	return math.Round(total*100) / 100, nil
}

// AddTransaction adds transactions to the portfolio. Each one is checked
// individually for solvency and the no-short-position invariant; a rejected
// transaction is logged and skipped while the rest of the batch continues.
// Derived state is reloaded once after the batch. The returned error joins
// every rejection.
func (p *Portfolio) AddTransaction(ctx context.Context, transactions ...Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, trx := range transactions {
		if err := trx.Validate(); err != nil {
			log.WithError(err).Errorf("%s: transaction not added", p.account)
			errs = append(errs, err)
			continue
		}
		ok, newCash, err := p.enoughFunds(ctx, trx)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		if !ok {
			ferr := &InsufficientFundsError{Account: p.account, Shortfall: -newCash}
			log.Errorf("%s: transaction not added. not enough funds to perform this transaction, missing %.2f to complete", p.account, -newCash)
			errs = append(errs, ferr)
			continue
		}
		if trx.Type == Split {
			err = p.ledger.AddSplit(trx)
		} else {
			err = p.ledger.Add(trx)
		}
		if err != nil {
			log.WithError(err).Errorf("%s: transaction not added", p.account)
			errs = append(errs, err)
		}
	}
	if err := p.Load(ctx); err != nil {
		return errors.Join(append(errs, err)...)
	}
	return errors.Join(errs...)
}

// enoughFunds reports whether the cash available on the transaction date
// covers its value in portfolio currency.
func (p *Portfolio) enoughFunds(ctx context.Context, trx Transaction) (ok bool, newCash float64, err error) {
	value, _ := trx.Notional().Float64()
	if trx.Currency != p.currency {
		rate, err := p.fx.RateAsOf(ctx, Pair(trx.Currency, p.currency), trx.Date)
		if err != nil {
			return false, 0, err
		}
		fees, _ := trx.Fees.Float64()
		value = value*rate + fees
	}
	liveCash, err := p.Cash(ctx, trx.Date)
	if err != nil {
		return false, 0, err
	}
	return value < liveCash, liveCash - value, nil
}

// AddCashChange appends cash changes to the cash ledger, then reloads
// derived state.
func (p *Portfolio) AddCashChange(ctx context.Context, changes ...CashChange) error {
	if len(changes) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, c := range changes {
		if err := p.cashLedger.Add(c); err != nil {
			log.WithError(err).Errorf("%s: cash change not added", p.account)
			errs = append(errs, err)
		}
	}
	log.Debugf("cash changes for %s have been added", p.account)
	if err := p.Load(ctx); err != nil {
		return errors.Join(append(errs, err)...)
	}
	return errors.Join(errs...)
}

// SetTag assigns a strategy tag to a ticker, persists it and reloads the
// derived state so position tags stay current.
func (p *Portfolio) SetTag(ctx context.Context, ticker, tag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.tags.Set(ticker, tag); err != nil {
		return err
	}
	return p.Load(ctx)
}

// Tags returns the underlying tag set.
func (p *Portfolio) Tags() *PositionTags { return p.tags }

// OpenPositions returns the positions whose rounded held quantity on the
// given date is non-zero.
func (p *Portfolio) OpenPositions(on date.Date) map[string]*Position {
	open := make(map[string]*Position)
	for ticker, pos := range p.positions {
		if math.Round(pos.QuantityAsOf(on)) != 0 {
			open[ticker] = pos
		}
	}
	return open
}

// PositionWeights returns each open position's share of the market value on
// the given date. A sum deviating from 1 beyond tolerance is logged as an
// error, not raised.
func (p *Portfolio) PositionWeights(on date.Date) map[string]float64 {
	if on.IsZero() {
		on = p.reader.LastDataPoint(p.currency)
	}
	mv, ok := p.marketValue.ValueAsOf(on)
	if !ok || mv == 0 {
		return nil
	}
	weights := make(map[string]float64)
	sum := 0.0
	for ticker, pos := range p.OpenPositions(on) {
		npv, ok := pos.NPV().ValueAsOf(on)
		if !ok {
			log.Errorf("no data for %s", ticker)
			continue
		}
		weights[ticker] = npv / mv
		sum += weights[ticker]
	}
	if sum < 0.99 || sum > 1.01 {
		log.Errorf("weights do not add to 1: %f", sum)
	}
	return weights
}

// StrategyWeights returns the market value share of each strategy tag on the
// given date.
func (p *Portfolio) StrategyWeights(on date.Date) map[string]float64 {
	if on.IsZero() {
		on = p.reader.LastDataPoint(p.currency)
	}
	mv, ok := p.marketValue.ValueAsOf(on)
	if !ok || mv == 0 {
		return nil
	}
	weights := make(map[string]float64)
	for _, pos := range p.OpenPositions(on) {
		if npv, ok := pos.NPV().ValueAsOf(on); ok {
			weights[pos.Tag] += npv / mv
		}
	}
	return weights
}

// DailyPnL computes the PnL decomposition of every included position over
// [start, end], fanned out per ticker on worker goroutines over read-only
// snapshots of the ledger and FX state. Zero dates default to the last data
// point. A ticker whose computation fails is logged and omitted.
func (p *Portfolio) DailyPnL(start, end date.Date, exclude, tags []string) map[string]*PnLFrame {
	if end.IsZero() {
		end = p.reader.LastDataPoint(p.currency)
	}
	if start.IsZero() {
		start = end
	}
	included := p.selectPositions(exclude, tags)
	rates := p.fx.Rates()

	var wg sync.WaitGroup
	var mu sync.Mutex
	out := make(map[string]*PnLFrame, len(included))
	for ticker, pos := range included {
		transactions := make([]Transaction, 0)
		for _, trx := range p.ledger.TickerTransactions(ticker) {
			if !trx.Date.Before(start) && !trx.Date.After(end) {
				transactions = append(transactions, trx)
			}
		}
		wg.Add(1)
		go func(ticker string, pos *Position, transactions []Transaction) {
			defer wg.Done()
			frame, err := pos.DailyPnL(start, end, transactions, rates, p.currency)
			if err != nil {
				log.WithError(err).Errorf("pnl not computed for %s", ticker)
				return
			}
			mu.Lock()
			out[ticker] = frame
			mu.Unlock()
		}(ticker, pos, transactions)
	}
	wg.Wait()
	return out
}

// DailyTotalPnL returns the total PnL column per ticker over [start, end].
func (p *Portfolio) DailyTotalPnL(start, end date.Date, exclude, tags []string) map[string]*date.History[float64] {
	out := make(map[string]*date.History[float64])
	for ticker, frame := range p.DailyPnL(start, end, exclude, tags) {
		total := frame.Total
		out[ticker] = &total
	}
	return out
}

// PctDailyTotalPnL returns the portfolio's daily PnL as a percentage of its
// market value over [start, end], optionally counting cash in the
// denominator. Days with no market value yield 0.
func (p *Portfolio) PctDailyTotalPnL(ctx context.Context, start, end date.Date, includeCash bool, exclude, tags []string) (*date.History[float64], error) {
	if end.IsZero() {
		end = p.reader.LastDataPoint(p.currency)
	}
	if start.IsZero() {
		start = end
	}

	mv := p.marketValue
	if len(exclude) > 0 || len(tags) > 0 {
		var err error
		mv, err = p.ComputeMarketValue(ctx, exclude, tags)
		if err != nil {
			return nil, err
		}
	}

	totals := p.DailyTotalPnL(start, end, exclude, tags)
	out := &date.History[float64]{}
	for on, value := range mv.Values() {
		if on.Before(start) || on.After(end) {
			continue
		}
		if includeCash {
			if c, ok := p.cashHistory.Get(on); ok {
				value += c
			}
		}
		sum := 0.0
		for _, h := range totals {
			if v, ok := h.Get(on); ok {
				sum += v
			}
		}
		if value == 0 {
			out.Append(on, 0)
		} else {
			out.Append(on, sum/value)
		}
	}
	return out, nil
}

// Returns implements TimeSeries: the portfolio's daily percent PnL, cash
// excluded.
func (p *Portfolio) Returns(start, end date.Date) *date.History[float64] {
	h, err := p.PctDailyTotalPnL(context.Background(), start, end, false, nil, nil)
	if err != nil {
		log.WithError(err).Errorf("%s: returns not computed", p.account)
		return &date.History[float64]{}
	}
	return h
}

// UpdateData refreshes prices for every position and every tracked FX pair,
// then reloads all derived state.
func (p *Portfolio) UpdateData(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ticker := range p.positions {
		if err := p.reader.Source().GetPrices(ctx, ticker); err != nil {
			return fmt.Errorf("could not update prices for %s: %w", ticker, err)
		}
	}
	if err := p.fx.Refresh(ctx); err != nil {
		return err
	}
	if err := p.Load(ctx); err != nil {
		return err
	}
	log.Infof("%s updated", p.account)
	return nil
}

// Reset erases both ledgers, the tags and the FX cache, then reloads.
func (p *Portfolio) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ledger.Reset(); err != nil {
		return err
	}
	if err := p.cashLedger.Reset(); err != nil {
		return err
	}
	if err := p.tags.Reset(); err != nil {
		return err
	}
	p.fx.Reset()
	return p.Load(ctx)
}

// selectPositions applies the exclude and tags filters.
func (p *Portfolio) selectPositions(exclude, tags []string) map[string]*Position {
	excluded := make(map[string]bool, len(exclude))
	for _, t := range exclude {
		excluded[t] = true
	}
	tagged := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagged[t] = true
	}
	out := make(map[string]*Position)
	for ticker, pos := range p.positions {
		if excluded[ticker] {
			continue
		}
		if len(tagged) > 0 && !tagged[pos.Tag] {
			continue
		}
		out[ticker] = pos
	}
	return out
}

// TotalFees returns the ledger's accumulated fees.
func (p *Portfolio) TotalFees() decimal.Decimal { return p.ledger.TotalFees() }

var _ TimeSeries = (*Portfolio)(nil)
var _ TimeSeries = (*Position)(nil)
