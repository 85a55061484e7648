package pricing

import "time"

// RentalDays converts a start/end date pair into a billable day count.
// Both dates are normalised to midnight UTC so time-of-day components cannot
// introduce off-by-one errors, the difference is taken as an absolute value,
// and a same-day range still bills one day.
func RentalDays(start, end time.Time) int {
	s := midnight(start)
	e := midnight(end)
	if e.Before(s) {
		s, e = e, s
	}
	days := int(e.Sub(s) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
