package date

import "fmt"

// Range is an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange returns the range [from, to]. It panics if to is before from.
func NewRange(from, to Date) Range {
	if to.Before(from) {
		panic(fmt.Sprintf("invalid range: %s is before %s", to, from))
	}
	return Range{From: from, To: to}
}

// Contains reports whether d falls within the range, boundaries included.
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

// Days returns the dates in the range, in order.
func (r Range) Days() []Date {
	var days []Date
	for on := r.From; !on.After(r.To); on = on.Add(1) {
		days = append(days, on)
	}
	return days
}

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
