package portlib

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webclinic017/portlib/date"
)

func TestDataReaderFetchesMissingSeries(t *testing.T) {
	e := newTestEnv(t)
	e.source.prices["AAPL"] = series(map[date.Date]float64{
		D(2022, time.May, 16): 145.54,
		D(2022, time.May, 17): 149.24,
	})

	h, err := e.reader.Prices(context.Background(), "AAPL")
	require.NoError(t, err)
	v, ok := h.ValueAsOf(D(2022, time.May, 17))
	require.True(t, ok)
	assert.Equal(t, 149.24, v)
	assert.Equal(t, []string{"prices:AAPL"}, e.source.calls)

	// a second read comes from disk, not the vendor
	_, err = e.reader.Prices(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"prices:AAPL"}, e.source.calls)
}

func TestSeriesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices", "AAPL.csv")
	in := series(map[date.Date]float64{
		D(2022, time.May, 16): 145.54,
		D(2022, time.May, 17): 149.24,
	})
	require.NoError(t, WriteSeries(path, "Close", in))

	out, err := ReadSeries(path)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	v, ok := out.ValueAsOf(D(2022, time.May, 16))
	require.True(t, ok)
	assert.Equal(t, 145.54, v)
}

func TestReadSeriesMissingFile(t *testing.T) {
	_, err := ReadSeries(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLastDataPoint(t *testing.T) {
	e := newTestEnv(t)
	rates := series(map[date.Date]float64{
		D(2022, time.May, 16): 1.25,
		D(2022, time.May, 17): 1.25,
	})
	require.NoError(t, WriteSeries(filepath.Join(e.dataDir, "fx", "USDCAD.csv"), "Rate", rates))

	assert.Equal(t, D(2022, time.May, 17), e.reader.LastDataPoint("CAD"))

	// no persisted pair quotes JPY, fall back to the calendar
	assert.Equal(t, date.LastBusinessDay(date.Today()), e.reader.LastDataPoint("JPY"))
}
