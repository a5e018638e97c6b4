package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/credlib/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays_SkipsWeekendAndHoliday(t *testing.T) {
	t.Parallel()

	// Thu 2025-07-03 + 1 BD skips Independence Day (Fri) and the weekend.
	got := calendar.AddBusinessDays(calendar.USD, date(2025, 7, 3), 1)
	if want := date(2025, 7, 7); !got.Equal(want) {
		t.Fatalf("AddBusinessDays: got %s want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	back := calendar.AddBusinessDays(calendar.WeekendsOnly, date(2025, 7, 7), -1)
	if want := date(2025, 7, 4); !back.Equal(want) {
		t.Fatalf("AddBusinessDays(-1): got %s want %s", back.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestAdjust_ModifiedFollowingStaysInMonth(t *testing.T) {
	t.Parallel()

	// Sat 2025-05-31 rolls back to Fri 2025-05-30 rather than into June.
	got := calendar.Adjust(calendar.TARGET, date(2025, 5, 31))
	if want := date(2025, 5, 30); !got.Equal(want) {
		t.Fatalf("Adjust: got %s want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	// Sat 2025-09-20 rolls forward to Mon 2025-09-22.
	got = calendar.Adjust(calendar.USD, date(2025, 9, 20))
	if want := date(2025, 9, 22); !got.Equal(want) {
		t.Fatalf("Adjust: got %s want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]calendar.CalendarID{
		"eur":     calendar.TARGET,
		" USD ":   calendar.USD,
		"tky":     calendar.JPY,
		"nowhere": calendar.WeekendsOnly,
	}
	for in, want := range cases {
		if got := calendar.Parse(in); got != want {
			t.Fatalf("Parse(%q) = %s want %s", in, got, want)
		}
	}
}
