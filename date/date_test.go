package date

import (
	"testing"
	"time"
)

// TestTime asserts that time() is canonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestNewNormalizes(t *testing.T) {
	testCases := []struct {
		name string
		in   Date
		want Date
	}{
		{"day overflow", Date{2022, time.January, 32}, New(2022, time.February, 1)},
		{"day zero", Date{2022, time.March, 0}, New(2022, time.February, 28)},
		{"month overflow", Date{2022, time.Month(13), 1}, New(2023, time.January, 1)},
		{"all zero stays zero", Date{}, Date{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := New(tc.in.y, tc.in.m, tc.in.d); got != tc.want {
				t.Errorf("New() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewZeroIsZero(t *testing.T) {
	if !New(0, 0, 0).IsZero() {
		t.Errorf("New(0, 0, 0).IsZero() = false, want true")
	}
	if New(2022, time.May, 12).IsZero() {
		t.Errorf("New(2022, 5, 12).IsZero() = true, want false")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2022-05-17", New(2022, time.May, 17), false},
		{"2022-5-7", New(2022, time.May, 7), false},
		{"17/05/2022", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestIterate(t *testing.T) {
	a := new(History[float64]).
		Append(New(2022, time.May, 16), 1).
		Append(New(2022, time.May, 18), 2)
	b := new(History[float64]).
		Append(New(2022, time.May, 16), 3).
		Append(New(2022, time.May, 17), 4)

	var got []Date
	for on := range Iterate(*a, *b) {
		got = append(got, on)
	}
	want := []Date{
		New(2022, time.May, 16),
		New(2022, time.May, 17),
		New(2022, time.May, 18),
	}
	if len(got) != len(want) {
		t.Fatalf("Iterate() yielded %d dates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Iterate()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
