package portlib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webclinic017/portlib/date"
)

func newTestCashLedger(t *testing.T) *CashLedger {
	t.Helper()
	l, err := NewCashLedger(NewCSVCashRepository(t.TempDir()))
	require.NoError(t, err)
	return l
}

func TestCashBalanceAsOf(t *testing.T) {
	l := newTestCashLedger(t)
	require.NoError(t, l.Add(deposit(D(2022, time.January, 1), 1000)))
	require.NoError(t, l.Add(CashChange{Date: D(2022, time.March, 1), Direction: Withdrawal, Amount: dec(-250)}))
	require.NoError(t, l.Add(deposit(D(2022, time.June, 1), 100)))

	testCases := []struct {
		name string
		on   date.Date
		want float64
	}{
		{"before any change", D(2021, time.December, 31), 0},
		{"after the deposit", D(2022, time.January, 1), 1000},
		{"after the withdrawal", D(2022, time.April, 1), 750},
		{"after everything", D(2022, time.December, 31), 850},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := l.BalanceAsOf(tc.on).Float64()
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCashAddRejectsSignMismatch(t *testing.T) {
	l := newTestCashLedger(t)
	err := l.Add(CashChange{Date: D(2022, time.January, 1), Direction: Withdrawal, Amount: dec(500)})
	require.Error(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestCashReset(t *testing.T) {
	l := newTestCashLedger(t)
	require.NoError(t, l.Add(deposit(D(2022, time.January, 1), 1000)))
	require.NoError(t, l.Reset())
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.BalanceAsOf(D(2022, time.December, 31)).IsZero())
}
