package date

import (
	"testing"
	"time"
)

func TestMarketDays(t *testing.T) {
	// 2022-05-13 is a Friday, 2022-05-18 a Wednesday.
	got := MarketDays(New(2022, time.May, 13), New(2022, time.May, 18))
	want := []Date{
		New(2022, time.May, 13),
		New(2022, time.May, 16),
		New(2022, time.May, 17),
		New(2022, time.May, 18),
	}
	if len(got) != len(want) {
		t.Fatalf("MarketDays() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MarketDays()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if days := MarketDays(New(2022, time.May, 18), New(2022, time.May, 13)); days != nil {
		t.Errorf("MarketDays() with from after to = %v, want nil", days)
	}
}

func TestAddBusinessDays(t *testing.T) {
	testCases := []struct {
		name string
		from Date
		n    int
		want Date
	}{
		{"forward over a weekend", New(2022, time.May, 13), 1, New(2022, time.May, 16)},
		{"back over a weekend", New(2022, time.May, 16), -1, New(2022, time.May, 13)},
		{"four back", New(2022, time.May, 19), -4, New(2022, time.May, 13)},
		{"zero", New(2022, time.May, 17), 0, New(2022, time.May, 17)},
		{"from a saturday", New(2022, time.May, 14), 1, New(2022, time.May, 16)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AddBusinessDays(tc.from, tc.n); got != tc.want {
				t.Errorf("AddBusinessDays(%v, %d) = %v, want %v", tc.from, tc.n, got, tc.want)
			}
		})
	}
}

func TestLastBusinessDay(t *testing.T) {
	testCases := []struct {
		name string
		on   Date
		want Date
	}{
		{"a weekday", New(2022, time.May, 17), New(2022, time.May, 17)},
		{"a saturday", New(2022, time.May, 14), New(2022, time.May, 13)},
		{"a sunday", New(2022, time.May, 15), New(2022, time.May, 13)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LastBusinessDay(tc.on); got != tc.want {
				t.Errorf("LastBusinessDay(%v) = %v, want %v", tc.on, got, tc.want)
			}
		})
	}
}
