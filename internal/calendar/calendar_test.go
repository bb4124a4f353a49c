package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsTradingDay(t *testing.T) {
	cases := []struct {
		name string
		date time.Time
		want bool
	}{
		{"ordinary weekday", date(2024, 3, 6), true},
		{"saturday", date(2024, 3, 9), false},
		{"sunday", date(2024, 3, 10), false},
		{"new years day", date(2024, 1, 1), false},
		{"mlk day 2024", date(2024, 1, 15), false},
		{"presidents day 2024", date(2024, 2, 19), false},
		{"good friday 2024", date(2024, 3, 29), false},
		{"good friday 2025", date(2025, 4, 18), false},
		{"good friday 2026", date(2026, 4, 3), false},
		// Maundy Thursday trades even though the Friday is closed.
		{"thursday before good friday 2024", date(2024, 3, 28), true},
		{"memorial day 2024", date(2024, 5, 27), false},
		{"juneteenth 2024", date(2024, 6, 19), false},
		{"independence day 2024", date(2024, 7, 4), false},
		{"labor day 2024", date(2024, 9, 2), false},
		{"thanksgiving 2024", date(2024, 11, 28), false},
		{"christmas 2024", date(2024, 12, 25), false},
		{"day after christmas", date(2024, 12, 26), true},
		// July 4 2026 falls on a Saturday, observed Friday July 3.
		{"observed independence day 2026", date(2026, 7, 3), false},
		// Christmas 2022 fell on a Sunday, observed Monday the 26th.
		{"observed christmas 2022", date(2022, 12, 26), false},
		// New Year's Day 2022 fell on a Saturday, observed Dec 31 2021.
		{"observed new years 2021-12-31", date(2021, 12, 31), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTradingDay(tc.date))
		})
	}
}

func TestNextTradingDay(t *testing.T) {
	// Friday before MLK weekend 2024: next session is Tuesday.
	assert.Equal(t, date(2024, 1, 16), NextTradingDay(date(2024, 1, 12)))
	// Midweek: just the next day.
	assert.Equal(t, date(2024, 3, 7), NextTradingDay(date(2024, 3, 6)))
}
