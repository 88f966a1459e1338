package portlib

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/webclinic017/portlib/date"
)

// D is a date literal helper for tests.
func D(y int, m time.Month, d int) date.Date { return date.New(y, m, d) }

// dec is a decimal literal helper for tests.
func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// buy, sell, dividend, split and deposit build ledger rows from constants.
func buy(on date.Date, ticker string, qty, price float64, cur string) Transaction {
	return Transaction{Date: on, Ticker: ticker, Type: Buy, Quantity: dec(qty), Price: dec(price), Currency: cur}
}

func sell(on date.Date, ticker string, qty, price float64, cur string) Transaction {
	return Transaction{Date: on, Ticker: ticker, Type: Sell, Quantity: dec(qty), Price: dec(price), Currency: cur}
}

func dividendOf(on date.Date, ticker string, amount float64, cur string) Transaction {
	return Transaction{Date: on, Ticker: ticker, Type: Dividend, Price: dec(amount), Currency: cur}
}

func splitOf(on date.Date, ticker string, factor float64, cur string) Transaction {
	return Transaction{Date: on, Ticker: ticker, Type: Split, Price: dec(factor), Currency: cur}
}

func deposit(on date.Date, amount float64) CashChange {
	return CashChange{Date: on, Direction: Deposit, Amount: dec(amount)}
}

// series builds a History from alternating day/value pairs.
func series(points map[date.Date]float64) *date.History[float64] {
	h := &date.History[float64]{}
	for on, v := range points {
		h.Append(on, v)
	}
	return h
}

// stubSource is an in-memory market data vendor. Fetches persist the staged
// series into the data directory the way the real vendor client does.
type stubSource struct {
	dir    string
	prices map[string]*date.History[float64]
	fx     map[string]*date.History[float64]
	calls  []string
}

func newStubSource(dir string) *stubSource {
	return &stubSource{
		dir:    dir,
		prices: make(map[string]*date.History[float64]),
		fx:     make(map[string]*date.History[float64]),
	}
}

func (s *stubSource) GetPrices(_ context.Context, ticker string) error {
	s.calls = append(s.calls, "prices:"+ticker)
	h, ok := s.prices[ticker]
	if !ok {
		h = &date.History[float64]{}
	}
	return WriteSeries(filepath.Join(s.dir, "prices", ticker+".csv"), "Close", h)
}

func (s *stubSource) GetFx(_ context.Context, pair string) error {
	s.calls = append(s.calls, "fx:"+pair)
	h, ok := s.fx[pair]
	if !ok {
		h = &date.History[float64]{}
	}
	return WriteSeries(filepath.Join(s.dir, "fx", pair+".csv"), "Rate", h)
}

func (s *stubSource) GetSplits(context.Context, string) (*date.History[float64], error) {
	return &date.History[float64]{}, nil
}

func (s *stubSource) GetDividends(_ context.Context, ticker string, _, _ date.Date) error {
	return WriteSeries(filepath.Join(s.dir, "dividends", ticker+".csv"), "Dividend", &date.History[float64]{})
}

func (s *stubSource) GetBalanceSheet(context.Context, string) error { return nil }

func (s *stubSource) GetCashFlow(context.Context, string) error { return nil }

func (s *stubSource) GetIncomeStatement(context.Context, string) error { return nil }

// testEnv bundles everything a portfolio test needs over a temp directory.
type testEnv struct {
	accountDir string
	dataDir    string
	source     *stubSource
	reader     *DataReader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	source := newStubSource(dataDir)
	return &testEnv{
		accountDir: filepath.Join(root, "account"),
		dataDir:    dataDir,
		source:     source,
		reader:     NewDataReader(dataDir, source),
	}
}

// newPortfolio assembles an engine over the env's temp stores.
func (e *testEnv) newPortfolio(t *testing.T, currency string) *Portfolio {
	t.Helper()
	ledger, err := NewTransactionLedger(NewCSVTransactionRepository(e.accountDir))
	require.NoError(t, err)
	cashLedger, err := NewCashLedger(NewCSVCashRepository(e.accountDir))
	require.NoError(t, err)
	fx := NewFxRateCache(e.reader)
	tags := NewPositionTags(e.accountDir)
	p, err := NewPortfolio(context.Background(), "test", currency, e.reader, ledger, cashLedger, fx, tags)
	require.NoError(t, err)
	return p
}
