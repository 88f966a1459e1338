package portlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVTransactionRepositoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := NewCSVTransactionRepository(dir)

	rows := []Transaction{
		buy(D(2022, time.May, 12), "AAPL", 10, 100, "USD"),
		sell(D(2022, time.June, 1), "AAPL", -4, 120.5, "USD"),
		dividendOf(D(2022, time.June, 15), "AAPL", 23.1, "USD"),
	}
	require.NoError(t, repo.Append(rows...))

	got, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range rows {
		assert.Equal(t, rows[i].Date, got[i].Date)
		assert.Equal(t, rows[i].Ticker, got[i].Ticker)
		assert.Equal(t, rows[i].Type, got[i].Type)
		assert.True(t, rows[i].Quantity.Equal(got[i].Quantity), "quantity row %d", i)
		assert.True(t, rows[i].Price.Equal(got[i].Price), "price row %d", i)
	}
}

func TestCSVRepositoryCreatedEmpty(t *testing.T) {
	dir := t.TempDir()
	repo := NewCSVTransactionRepository(dir)

	got, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, got)

	// the file now exists with just the header
	data, err := os.ReadFile(filepath.Join(dir, "transactions.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Date,Ticker,Type,Quantity,Price,Fees,Currency\n", string(data))
}

func TestCSVRepositoryBadShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte("When,What\n2022-05-12,stuff\n"), 0644))

	repo := NewCSVTransactionRepository(dir)
	_, err := repo.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadShape)
}

func TestCSVRepositoryOverwriteAndReset(t *testing.T) {
	dir := t.TempDir()
	repo := NewCSVCashRepository(dir)

	require.NoError(t, repo.Append(deposit(D(2022, time.January, 1), 1000)))
	require.NoError(t, repo.Overwrite([]CashChange{deposit(D(2022, time.February, 1), 500)}))

	got, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, D(2022, time.February, 1), got[0].Date)

	require.NoError(t, repo.Reset())
	got, err = repo.Load()
	require.NoError(t, err)
	assert.Empty(t, got)
}
