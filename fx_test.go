package portlib

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webclinic017/portlib/date"
)

func TestFxSelfPair(t *testing.T) {
	env := newTestEnv(t)
	fx := NewFxRateCache(env.reader)
	fx.SetCalendar(date.Range{From: D(2022, time.May, 12), To: D(2022, time.May, 18)})

	h, err := fx.Get(context.Background(), "USDUSD")
	require.NoError(t, err)

	days := date.MarketDays(D(2022, time.May, 12), D(2022, time.May, 18))
	assert.Equal(t, len(days), h.Len())
	for _, on := range days {
		rate, ok := h.Get(on)
		require.True(t, ok, "missing %s", on)
		assert.Equal(t, 1.0, rate)
	}
	// no vendor call was made
	assert.Empty(t, env.source.calls)
}

func TestFxLazyRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.source.fx["USDCAD"] = series(map[date.Date]float64{
		D(2022, time.May, 16): 1.25,
		D(2022, time.May, 17): 1.26,
	})
	fx := NewFxRateCache(env.reader)

	h, err := fx.Get(context.Background(), "USDCAD")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, []string{"fx:USDCAD"}, env.source.calls)

	// second call is served from the cache
	_, err = fx.Get(context.Background(), "USDCAD")
	require.NoError(t, err)
	assert.Len(t, env.source.calls, 1)
}

func TestFxRateAsOfForwardFill(t *testing.T) {
	env := newTestEnv(t)
	env.source.fx["USDCAD"] = series(map[date.Date]float64{
		D(2022, time.May, 13): 1.25,
		D(2022, time.May, 17): 1.26,
	})
	fx := NewFxRateCache(env.reader)

	// 2022-05-15 is a Sunday: forward-fill from the prior Friday
	rate, err := fx.RateAsOf(context.Background(), "USDCAD", D(2022, time.May, 15))
	require.NoError(t, err)
	assert.Equal(t, 1.25, rate)

	_, err = fx.RateAsOf(context.Background(), "USDCAD", D(2022, time.May, 12))
	assert.Error(t, err)
}

func TestFxInvalidPair(t *testing.T) {
	env := newTestEnv(t)
	fx := NewFxRateCache(env.reader)
	_, err := fx.Get(context.Background(), "USD")
	assert.Error(t, err)
}

func TestFxRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.source.fx["USDCAD"] = series(map[date.Date]float64{D(2022, time.May, 16): 1.25})
	fx := NewFxRateCache(env.reader)

	_, err := fx.Get(context.Background(), "USDCAD")
	require.NoError(t, err)

	// vendor publishes a new day, refresh re-fetches and reloads
	env.source.fx["USDCAD"].Append(D(2022, time.May, 17), 1.26)
	require.NoError(t, fx.Refresh(context.Background()))

	h, err := fx.Get(context.Background(), "USDCAD")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
}

func TestFxReset(t *testing.T) {
	env := newTestEnv(t)
	env.source.fx["USDCAD"] = series(map[date.Date]float64{D(2022, time.May, 16): 1.25})
	fx := NewFxRateCache(env.reader)

	_, err := fx.Get(context.Background(), "USDCAD")
	require.NoError(t, err)
	assert.Len(t, fx.Rates(), 1)

	fx.Reset()
	assert.Empty(t, fx.Rates())
}
