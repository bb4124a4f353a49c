// Package calendar answers whether US equity markets trade on a date.
package calendar

import "time"

// IsTradingDay reports whether t falls on a regular NYSE trading day:
// a weekday that is not a market holiday.
func IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isMarketHoliday(t)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func isMarketHoliday(t time.Time) bool {
	y, m, d := t.Date()

	// Fixed-date holidays with observed shifts: Saturday observed
	// Friday, Sunday observed Monday.
	for _, h := range []struct {
		month time.Month
		day   int
	}{
		{time.January, 1},   // New Year's Day
		{time.June, 19},     // Juneteenth
		{time.July, 4},      // Independence Day
		{time.December, 25}, // Christmas
	} {
		if observedMatches(y, h.month, h.day, m, d) {
			return true
		}
	}

	if gf := easterSunday(y).AddDate(0, 0, -2); gf.Month() == m && gf.Day() == d {
		return true // Good Friday
	}

	switch m {
	case time.January: // MLK Day, third Monday
		return nthWeekday(y, time.January, time.Monday, 3) == d
	case time.February: // Presidents' Day, third Monday
		return nthWeekday(y, time.February, time.Monday, 3) == d
	case time.May: // Memorial Day, last Monday
		return lastWeekday(y, time.May, time.Monday) == d
	case time.September: // Labor Day, first Monday
		return nthWeekday(y, time.September, time.Monday, 1) == d
	case time.November: // Thanksgiving, fourth Thursday
		return nthWeekday(y, time.November, time.Thursday, 4) == d
	}
	return false
}

// observedMatches reports whether month/day is the observed date for a
// fixed holiday in year. A New Year's Day observed in the prior
// December is checked against that December date.
func observedMatches(year int, hm time.Month, hd int, m time.Month, d int) bool {
	holiday := time.Date(year, hm, hd, 0, 0, 0, 0, time.UTC)
	switch holiday.Weekday() {
	case time.Saturday:
		holiday = holiday.AddDate(0, 0, -1)
	case time.Sunday:
		holiday = holiday.AddDate(0, 0, 1)
	}
	om, od := holiday.Month(), holiday.Day()
	if om == m && od == d {
		return true
	}
	// Jan 1 on a Saturday is observed Dec 31 of the prior year.
	if hm == time.January && hd == 1 {
		next := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		if next.Weekday() == time.Saturday && m == time.December && d == 31 {
			return true
		}
	}
	return false
}

// easterSunday returns Western Easter for a year, computed with the
// anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the day of month of the nth weekday in a month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return 1 + offset + (n-1)*7
}

// lastWeekday returns the day of month of the last weekday in a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) int {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.Day() - offset
}
