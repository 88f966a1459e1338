package date

import "time"

// IsBusinessDay reports whether d falls on a weekday.
func (d Date) IsBusinessDay() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// MarketDays returns every business day between from and to, boundaries
// included, in chronological order. It returns nil when from is after to.
func MarketDays(from, to Date) []Date {
	if from.After(to) {
		return nil
	}
	var days []Date
	for on := from; !on.After(to); on = on.Add(1) {
		if on.IsBusinessDay() {
			days = append(days, on)
		}
	}
	return days
}

// AddBusinessDays returns the date n business days after d (before, when n is
// negative). A weekend start counts from the nearest enclosed weekday.
func AddBusinessDays(d Date, n int) Date {
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	on := d
	for n > 0 {
		on = on.Add(step)
		if on.IsBusinessDay() {
			n--
		}
	}
	return on
}

// LastBusinessDay returns d when it is a business day, otherwise the closest
// business day before it.
func LastBusinessDay(d Date) Date {
	on := d
	for !on.IsBusinessDay() {
		on = on.Add(-1)
	}
	return on
}
