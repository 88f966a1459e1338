package portlib

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/webclinic017/portlib/date"
)

// Pair builds a 6-character pair code from a base and a quote currency.
func Pair(base, quote string) string { return base + quote }

// selfPair reports whether the pair converts a currency to itself.
func selfPair(pair string) bool { return len(pair) == 6 && pair[:3] == pair[3:] }

// FxRateCache holds per-pair daily closing-rate series, lazily populated
// from a DataReader. A self-pair (base == quote) is served as a constant 1.0
// series over the cache's trading calendar, without fetching.
type FxRateCache struct {
	mu       sync.RWMutex
	reader   *DataReader
	calendar date.Range
	pairs    map[string]*date.History[float64]
}

// NewFxRateCache returns an empty cache backed by the given reader.
func NewFxRateCache(reader *DataReader) *FxRateCache {
	return &FxRateCache{
		reader: reader,
		pairs:  make(map[string]*date.History[float64]),
	}
}

// SetCalendar sets the trading-day range spanned by synthetic self-pair
// series. The valuation engine installs [start date, last data point] here
// on every load.
func (c *FxRateCache) SetCalendar(r date.Range) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calendar = r
	// self-pairs depend on the calendar, rebuild them on next Get.
	for pair := range c.pairs {
		if selfPair(pair) {
			delete(c.pairs, pair)
		}
	}
}

// Get returns the rate series for a pair, registering and fetching it on
// first use.
func (c *FxRateCache) Get(ctx context.Context, pair string) (*date.History[float64], error) {
	if len(pair) != 6 {
		return nil, fmt.Errorf("invalid fx pair %q, want a 6-character code", pair)
	}
	c.mu.RLock()
	h, ok := c.pairs[pair]
	c.mu.RUnlock()
	if ok {
		return h, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.pairs[pair]; ok {
		return h, nil
	}
	h, err := c.load(ctx, pair)
	if err != nil {
		return nil, err
	}
	c.pairs[pair] = h
	return h, nil
}

// load builds the series for a pair, without touching the map.
func (c *FxRateCache) load(ctx context.Context, pair string) (*date.History[float64], error) {
	if selfPair(pair) {
		h := &date.History[float64]{}
		for _, on := range date.MarketDays(c.calendar.From, c.calendar.To) {
			h.Append(on, 1.0)
		}
		return h, nil
	}
	return c.reader.Fx(ctx, pair)
}

// RateAsOf returns the rate of a pair on the given date, forward-filled to
// the most recent prior date when the exact date is missing.
func (c *FxRateCache) RateAsOf(ctx context.Context, pair string, on date.Date) (float64, error) {
	if selfPair(pair) {
		return 1.0, nil
	}
	h, err := c.Get(ctx, pair)
	if err != nil {
		return 0, err
	}
	rate, ok := h.ValueAsOf(on)
	if !ok {
		return 0, fmt.Errorf("no %s rate on or before %s", pair, on)
	}
	return rate, nil
}

// Refresh re-fetches every tracked pair from the source and reloads the
// cache.
func (c *FxRateCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pair := range slices.Sorted(maps.Keys(c.pairs)) {
		if !selfPair(pair) {
			if err := c.reader.Source().GetFx(ctx, pair); err != nil {
				return fmt.Errorf("could not refresh %s: %w", pair, err)
			}
		}
		h, err := c.load(ctx, pair)
		if err != nil {
			return err
		}
		c.pairs[pair] = h
	}
	return nil
}

// Reset drops every tracked pair.
func (c *FxRateCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs = make(map[string]*date.History[float64])
}

// Rates returns a snapshot copy of every tracked series, safe to read from
// worker goroutines while the cache keeps serving.
func (c *FxRateCache) Rates() map[string]date.History[float64] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]date.History[float64], len(c.pairs))
	for pair, h := range c.pairs {
		out[pair] = *h
	}
	return out
}
