package calendar

import (
	"strings"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// WeekendsOnly treats every Monday-Friday as a business day.
	WeekendsOnly CalendarID = "NONE"
	TARGET       CalendarID = "TARGET"
	USD          CalendarID = "USD"
	GBP          CalendarID = "GBP"
	JPY          CalendarID = "JPY"
)

// Parse maps a user-supplied name onto a CalendarID. Unknown names map to WeekendsOnly.
func Parse(name string) CalendarID {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TARGET", "EUR":
		return TARGET
	case "USD", "NY", "US":
		return USD
	case "GBP", "LON", "UK":
		return GBP
	case "JPY", "JPN", "TKY":
		return JPY
	default:
		return WeekendsOnly
	}
}

type monthDay struct {
	month time.Month
	day   int
}

// Fixed-date holidays. Moving feasts (Easter, Thanksgiving) are not modelled: CDS coupon dates
// are the 20th of Mar/Jun/Sep/Dec and the settlement rule only needs a handful of business days.
var fixedHolidays = map[CalendarID][]monthDay{
	TARGET: {{time.January, 1}, {time.May, 1}, {time.December, 25}, {time.December, 26}},
	USD:    {{time.January, 1}, {time.June, 19}, {time.July, 4}, {time.November, 11}, {time.December, 25}},
	GBP:    {{time.January, 1}, {time.December, 25}, {time.December, 26}},
	JPY:    {{time.January, 1}, {time.January, 2}, {time.January, 3}, {time.February, 11}, {time.May, 3}, {time.May, 4}, {time.May, 5}, {time.November, 3}, {time.November, 23}, {time.December, 31}},
}

func isHoliday(cal CalendarID, t time.Time) bool {
	for _, h := range fixedHolidays[cal] {
		if t.Month() == h.month && t.Day() == h.day {
			return true
		}
	}
	return false
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}
