package portlib

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webclinic017/portlib/date"
)

// stageAppleCAD stages a week of AAPL closes in USD and a flat USDCAD rate,
// the fixture used by the CAD-denominated engine tests.
func stageAppleCAD(e *testEnv) {
	e.source.prices["AAPL"] = series(map[date.Date]float64{
		D(2022, time.May, 12): 142.56,
		D(2022, time.May, 13): 147.11,
		D(2022, time.May, 16): 146.50,
		D(2022, time.May, 17): 149.63995096,
	})
	e.source.fx["USDCAD"] = series(map[date.Date]float64{
		D(2022, time.May, 9):  1.25,
		D(2022, time.May, 10): 1.25,
		D(2022, time.May, 11): 1.25,
		D(2022, time.May, 12): 1.25,
		D(2022, time.May, 13): 1.25,
		D(2022, time.May, 16): 1.25,
		D(2022, time.May, 17): 1.25,
	})
}

// fundedApplePortfolio seeds a CAD portfolio with a large deposit and a
// 10-share AAPL buy in USD.
func fundedApplePortfolio(t *testing.T) *Portfolio {
	t.Helper()
	e := newTestEnv(t)
	stageAppleCAD(e)
	p := e.newPortfolio(t, "CAD")
	ctx := context.Background()
	require.NoError(t, p.AddCashChange(ctx, deposit(D(2022, time.January, 1), 1_000_000)))
	require.NoError(t, p.AddTransaction(ctx, buy(D(2022, time.May, 12), "AAPL", 10, 100.00, "USD")))
	return p
}

func TestPortfolioLoad(t *testing.T) {
	p := fundedApplePortfolio(t)

	assert.Equal(t, D(2022, time.May, 12), p.StartDate())
	require.Contains(t, p.Positions(), "AAPL")
	pos := p.Positions()["AAPL"]
	assert.Equal(t, "USD", pos.Currency)

	// prices converted into portfolio currency at load
	price, ok := pos.Prices().Get(D(2022, time.May, 16))
	require.True(t, ok)
	assert.InDelta(t, 146.50*1.25, price, 1e-9)

	// cumulative quantities over the trading calendar
	assert.Equal(t, 10.0, pos.QuantityAsOf(D(2022, time.May, 17)))
	assert.Equal(t, 10.0, pos.QuantityAsOf(D(2022, time.May, 12)))
}

func TestPortfolioMarketValue(t *testing.T) {
	p := fundedApplePortfolio(t)

	// yesterday's quantity marks today's converted close
	mv, ok := p.MarketValue().Get(D(2022, time.May, 17))
	require.True(t, ok)
	assert.InDelta(t, 10*149.63995096*1.25, mv, 1e-6)
}

func TestPortfolioCash(t *testing.T) {
	p := fundedApplePortfolio(t)
	ctx := context.Background()

	// deposit minus the converted buy notional
	cash, err := p.Cash(ctx, D(2022, time.May, 17))
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0-10*100.00*1.25, cash)

	// before the buy only the deposit counts
	cash, err = p.Cash(ctx, D(2022, time.May, 11))
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, cash)
}

func TestPortfolioDividends(t *testing.T) {
	p := fundedApplePortfolio(t)
	ctx := context.Background()
	require.NoError(t, p.AddTransaction(ctx, dividendOf(D(2022, time.May, 16), "AAPL", 50.00, "USD")))

	// converted at the window end rate, rounded to cents
	div, err := p.Dividends(ctx, date.Date{}, D(2022, time.May, 17))
	require.NoError(t, err)
	assert.Equal(t, 62.50, div)

	// dividends feed the cash balance
	cash, err := p.Cash(ctx, D(2022, time.May, 17))
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0-1250.0+62.50, cash)
}

func TestPortfolioRejectsInsolventTransaction(t *testing.T) {
	e := newTestEnv(t)
	stageAppleCAD(e)
	p := e.newPortfolio(t, "CAD")
	ctx := context.Background()

	// no deposit yet, the buy exceeds available cash
	err := p.AddTransaction(ctx, buy(D(2022, time.May, 12), "AAPL", 10, 100.00, "USD"))
	var ferr *InsufficientFundsError
	require.ErrorAs(t, err, &ferr)
	assert.InDelta(t, 1250.0, ferr.Shortfall, 1e-9)

	// rejected transaction leaves no trace
	assert.Equal(t, 0, p.Ledger().Len())
	assert.Empty(t, p.Positions())
}

func TestPortfolioBatchContinuesPastRejection(t *testing.T) {
	e := newTestEnv(t)
	stageAppleCAD(e)
	p := e.newPortfolio(t, "CAD")
	ctx := context.Background()
	require.NoError(t, p.AddCashChange(ctx, deposit(D(2022, time.January, 1), 2000)))

	err := p.AddTransaction(ctx,
		buy(D(2022, time.May, 12), "AAPL", 10, 100.00, "USD"), // 1250 CAD, fits
		buy(D(2022, time.May, 13), "AAPL", 10, 100.00, "USD"), // only 750 left
	)
	var ferr *InsufficientFundsError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, 1, p.Ledger().Len())
}

func TestPortfolioSplit(t *testing.T) {
	p := fundedApplePortfolio(t)
	ctx := context.Background()
	require.NoError(t, p.AddTransaction(ctx, splitOf(D(2022, time.May, 16), "AAPL", 2, "USD")))

	// quantities double, the buy notional is preserved
	assert.Equal(t, 20.0, p.Positions()["AAPL"].QuantityAsOf(D(2022, time.May, 17)))
	first, ok := p.Ledger().FirstTransaction("AAPL")
	require.True(t, ok)
	assert.True(t, dec(50.00).Equal(first.Price))
	assert.True(t, dec(1000.00).Equal(first.Notional()))
}

func TestPortfolioSplitPreservesMarketValue(t *testing.T) {
	e := newTestEnv(t)
	e.source.prices["AAPL"] = series(map[date.Date]float64{
		D(2022, time.May, 12): 100.00,
		D(2022, time.May, 13): 102.00,
		D(2022, time.May, 16): 51.00, // 2-for-1 split, the vendor close halves
		D(2022, time.May, 17): 52.00,
	})
	e.source.fx["USDCAD"] = series(map[date.Date]float64{
		D(2022, time.May, 12): 1.25,
		D(2022, time.May, 13): 1.25,
		D(2022, time.May, 16): 1.25,
		D(2022, time.May, 17): 1.25,
	})
	p := e.newPortfolio(t, "CAD")
	ctx := context.Background()
	require.NoError(t, p.AddCashChange(ctx, deposit(D(2022, time.January, 1), 1_000_000)))
	require.NoError(t, p.AddTransaction(ctx, buy(D(2022, time.May, 12), "AAPL", 10, 100.00, "USD")))

	before, ok := p.MarketValue().Get(D(2022, time.May, 13))
	require.True(t, ok)
	assert.InDelta(t, 10*102.00*1.25, before, 1e-6)

	require.NoError(t, p.AddTransaction(ctx, splitOf(D(2022, time.May, 16), "AAPL", 2, "USD")))

	// doubled quantity times the halved close, no value created or destroyed
	after, ok := p.MarketValue().Get(D(2022, time.May, 16))
	require.True(t, ok)
	assert.InDelta(t, before, after, 1e-6)

	next, ok := p.MarketValue().Get(D(2022, time.May, 17))
	require.True(t, ok)
	assert.InDelta(t, 20*52.00*1.25, next, 1e-6)
}

func TestPortfolioOpenPositions(t *testing.T) {
	p := fundedApplePortfolio(t)
	ctx := context.Background()

	open := p.OpenPositions(D(2022, time.May, 17))
	assert.Contains(t, open, "AAPL")

	require.NoError(t, p.AddTransaction(ctx, sell(D(2022, time.May, 16), "AAPL", -10, 150.00, "USD")))
	open = p.OpenPositions(D(2022, time.May, 17))
	assert.NotContains(t, open, "AAPL")
}

func TestPortfolioPositionWeights(t *testing.T) {
	p := fundedApplePortfolio(t)

	weights := p.PositionWeights(D(2022, time.May, 17))
	require.Contains(t, weights, "AAPL")
	assert.InDelta(t, 1.0, weights["AAPL"], 1e-6)

	strategies := p.StrategyWeights(D(2022, time.May, 17))
	assert.InDelta(t, 1.0, strategies[DefaultTag], 1e-6)
}

func TestPortfolioDailyTotalPnL(t *testing.T) {
	p := fundedApplePortfolio(t)

	// single-day window defaults start to end
	totals := p.DailyTotalPnL(date.Date{}, D(2022, time.May, 17), nil, nil)
	require.Contains(t, totals, "AAPL")
	got, ok := totals["AAPL"].Get(D(2022, time.May, 17))
	require.True(t, ok)
	assert.InDelta(t, 39.249387, got, 1e-6)
}

func TestPortfolioPctDailyTotalPnL(t *testing.T) {
	p := fundedApplePortfolio(t)
	ctx := context.Background()

	end := D(2022, time.May, 17)
	pct, err := p.PctDailyTotalPnL(ctx, end, end, false, nil, nil)
	require.NoError(t, err)

	mv, _ := p.MarketValue().Get(end)
	got, ok := pct.Get(end)
	require.True(t, ok)
	assert.InDelta(t, 39.249387/mv, got, 1e-9)
}

func TestPortfolioReturns(t *testing.T) {
	p := fundedApplePortfolio(t)

	r := p.Returns(D(2022, time.May, 16), D(2022, time.May, 17))
	_, ok := r.Get(D(2022, time.May, 16))
	assert.True(t, ok)
	got, ok := r.Get(D(2022, time.May, 17))
	require.True(t, ok)
	assert.Greater(t, got, 0.0)
}

func TestPortfolioUpdateData(t *testing.T) {
	e := newTestEnv(t)
	stageAppleCAD(e)
	p := e.newPortfolio(t, "CAD")
	ctx := context.Background()
	require.NoError(t, p.AddCashChange(ctx, deposit(D(2022, time.January, 1), 1_000_000)))
	require.NoError(t, p.AddTransaction(ctx, buy(D(2022, time.May, 12), "AAPL", 10, 100.00, "USD")))

	before := len(e.source.calls)
	require.NoError(t, p.UpdateData(ctx))
	assert.Contains(t, e.source.calls[before:], "prices:AAPL")
	assert.Contains(t, e.source.calls[before:], "fx:USDCAD")
}

func TestPortfolioReset(t *testing.T) {
	p := fundedApplePortfolio(t)
	ctx := context.Background()

	require.NoError(t, p.Reset(ctx))
	assert.Equal(t, 0, p.Ledger().Len())
	assert.Equal(t, 0, p.CashLedger().Len())
	assert.Empty(t, p.Positions())
	assert.True(t, p.StartDate().IsZero())
}
